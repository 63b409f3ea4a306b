/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
	"github.com/NVIDIA/dpdk-provisioner/pkg/serializer"
)

func grubCmd() *cli.Command {
	return &cli.Command{
		Name:                  "grub",
		EnableShellCompletion: true,
		Usage:                 "Add the DPDK kernel parameters to the boot-loader defaults",
		Description: `Adds "intel_iommu=on iommu=pt" and, when requested, a huge page reservation to
GRUB_CMDLINE_LINUX, regenerates the boot configuration and reports whether a
reboot is required. It never reboots.`,
		Flags: append(hugePageFlags(),
			&cli.StringFlag{
				Name:  "grub-defaults",
				Usage: "boot-loader defaults file (default: /etc/default/grub)",
			},
			&cli.StringFlag{
				Name:  "cmdline",
				Usage: "running kernel command line (default: /proc/cmdline)",
			},
			strictFlag(),
			outputFlag(),
			formatFlag(serializer.FormatYAML),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := configFrom(ctx)
			if cmd.IsSet("grub-defaults") {
				cfg.Grub.DefaultsPath = cmd.String("grub-defaults")
			}
			if cmd.IsSet("cmdline") {
				cfg.Grub.CmdlinePath = cmd.String("cmdline")
			}

			hp, err := parseHugePages(cmd)
			if err != nil {
				return err
			}

			policy, err := parsePolicy(cmd, cfg.FailurePolicy)
			if err != nil {
				return err
			}

			r, err := newReconciler(cfg, hostexec.NewRunner(hostexec.WithPolicy(policy)))
			if err != nil {
				return err
			}

			res, err := r.Reconcile(ctx, hp)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, res)
		},
	}
}
