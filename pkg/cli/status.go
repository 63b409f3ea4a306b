/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dpdk-provisioner/pkg/collector"
	"github.com/NVIDIA/dpdk-provisioner/pkg/serializer"
	"github.com/NVIDIA/dpdk-provisioner/pkg/snapshotter"
)

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Report the DPDK readiness of this host",
		Description: `Collects the configured and live kernel command line, loaded modules, huge page
pools and the state of the bind service, and derives readiness flags
(iommu_configured, iommu_active, driver_loaded, reboot_pending, ...).`,
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(serializer.FormatYAML),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := configFrom(ctx)

			factory := collector.NewDefaultFactory()
			factory.GrubDefaultsPath = cfg.Grub.DefaultsPath
			factory.CmdlinePath = cfg.Grub.CmdlinePath
			factory.CmdlineKey = cfg.Grub.Key
			factory.Driver = cfg.Driver.Name
			factory.Units = []string{cfg.Service.UnitName}

			s := &snapshotter.NodeSnapshotter{Version: version, Factory: factory}
			snap, err := s.Measure(ctx)
			if err != nil {
				return err
			}

			if ready := snap.Readiness(); ready != nil {
				if r, ok := ready.Get("reboot_pending"); ok && r.Any() == true {
					slog.Warn("kernel parameters are configured but not active, reboot pending")
				}
			}

			return writeResult(ctx, cmd, snap)
		},
	}
}
