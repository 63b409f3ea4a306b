// Package os collects the host state that decides whether DPDK can run.
//
// The collector returns a measurement of type "os" with five subtypes:
//
//  1. grub - parameters of the kernel command line configured in the
//     boot-loader defaults file (what the next boot will use)
//  2. cmdline - parameters of the running kernel from /proc/cmdline
//  3. kmod - loaded kernel modules
//  4. hugepages - total and free pages per page size from sysfs
//  5. readiness - derived flags: iommu_configured, iommu_active,
//     hugepages_configured, hugepages_active, driver_loaded and
//     reboot_pending (configured but not yet live)
//
// Boot identifiers such as root= and BOOT_IMAGE are dropped from the grub
// and cmdline subtypes.
//
// Usage:
//
//	c := &os.Collector{
//	    GrubDefaultsPath: "/etc/default/grub",
//	    CmdlinePath:      "/proc/cmdline",
//	    CmdlineKey:       "GRUB_CMDLINE_LINUX",
//	    ModulesPath:      "/proc/modules",
//	    HugePagesRoot:    "/sys/kernel/mm/hugepages",
//	    Driver:           "vfio-pci",
//	}
//	m, err := c.Collect(ctx)
package os
