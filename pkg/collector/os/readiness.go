package os

import (
	"github.com/NVIDIA/dpdk-provisioner/pkg/grub"
	"github.com/NVIDIA/dpdk-provisioner/pkg/kmod"
	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
)

func readiness(configured, live []string, mods map[string]bool, driver string) *measurement.Subtype {
	iommu := grub.IOMMUParameter()

	iommuConfigured := iommu.Present(configured)
	iommuActive := iommu.Present(live)
	hpConfigured := grub.HugePagesSet(configured)
	hpActive := grub.HugePagesSet(live)

	pending := (iommuConfigured && !iommuActive) || (hpConfigured && !hpActive)

	data := map[string]measurement.Reading{
		"iommu_configured":     measurement.Bool(iommuConfigured),
		"iommu_active":         measurement.Bool(iommuActive),
		"hugepages_configured": measurement.Bool(hpConfigured),
		"hugepages_active":     measurement.Bool(hpActive),
		"reboot_pending":       measurement.Bool(pending),
	}
	if driver != "" {
		data["driver"] = measurement.Str(driver)
		data["driver_loaded"] = measurement.Bool(mods[kmod.ModuleName(driver)])
	}

	return &measurement.Subtype{Name: "readiness", Data: data}
}
