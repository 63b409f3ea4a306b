// Package grub reconciles the boot-loader defaults file with the kernel
// parameters a DPDK host needs.
//
// # Reconciliation
//
// The Reconciler reads the defaults file (normally /etc/default/grub), finds
// the GRUB_CMDLINE_LINUX line and prepends whichever required parameters are
// missing from it:
//
//   - IOMMU: intel_iommu=on iommu=pt
//   - huge pages, when requested: default_hugepagesz=<SZ> hugepagesz=<SZ> hugepages=<N>
//
// When both are missing the IOMMU token is prepended first and the huge page
// token second, so the resulting line reads:
//
//	GRUB_CMDLINE_LINUX="default_hugepagesz=2G hugepagesz=2G hugepages=4 intel_iommu=on iommu=pt quiet splash"
//
// Every other line is written back unchanged and in its original position.
// A parameter already present is never inserted again, so running the
// reconciler twice leaves the file as the first run wrote it.
//
// # Reboot decision
//
// The regeneration command (grub2-mkconfig by default) runs on every call.
// A reboot is required when the file was rewritten, or when the running
// kernel's command line (/proc/cmdline) lacks any required parameter, which
// covers a file patched by an earlier run that was never booted.
//
// # Usage
//
//	r := grub.NewReconciler(
//	    grub.WithRegenerator(&grub.CommandRegenerator{Runner: runner, Command: cmd}),
//	)
//	res, err := r.Reconcile(ctx, hugePages)
//	if err != nil {
//	    return err
//	}
//	if res.RebootRequired {
//	    // schedule reboot
//	}
package grub
