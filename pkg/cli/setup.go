/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dpdk-provisioner/pkg/config"
	"github.com/NVIDIA/dpdk-provisioner/pkg/dpdk"
	"github.com/NVIDIA/dpdk-provisioner/pkg/grub"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
	"github.com/NVIDIA/dpdk-provisioner/pkg/k8s/client"
	"github.com/NVIDIA/dpdk-provisioner/pkg/k8s/node"
	"github.com/NVIDIA/dpdk-provisioner/pkg/kmod"
	"github.com/NVIDIA/dpdk-provisioner/pkg/provisioner"
	"github.com/NVIDIA/dpdk-provisioner/pkg/serializer"
	"github.com/NVIDIA/dpdk-provisioner/pkg/systemd"
)

func setupCmd() *cli.Command {
	return &cli.Command{
		Name:                  "setup",
		Aliases:               []string{"provision"},
		EnableShellCompletion: true,
		Usage:                 "Install DPDK tools, enable the IOMMU and bind NICs at boot",
		Description: `Prepares the host for DPDK:

  1. installs dpdk-devbind.py (from the DPDK sources or distribution packages)
  2. adds "intel_iommu=on iommu=pt" (and optional huge pages) to GRUB_CMDLINE_LINUX
     in /etc/default/grub and regenerates the boot configuration
  3. loads the userspace driver now and at every boot
  4. installs and starts dpdk.service, which binds the NICs at boot
  5. reboots when the running kernel lacks the new parameters

Running setup again is safe; parameters already present are not added twice.

# Examples

Bind two NICs to vfio-pci:
  dpdkctl setup -n ens1f0 -n ens1f1

Reserve 4 x 1G huge pages and defer the reboot:
  dpdkctl setup -n 0000:3b:00.0 --hugepage-size 1G --hugepage-count 4 --no-reboot`,
		Flags: append(hugePageFlags(),
			&cli.StringSliceFlag{
				Name:    "nics",
				Aliases: []string{"n"},
				Usage:   "NICs to bind to the DPDK driver, by name or PCI address (repeatable)",
			},
			&cli.StringFlag{
				Name:    "driver",
				Aliases: []string{"d"},
				Value:   kmod.DefaultDriver,
				Usage:   "userspace driver to bind NICs to",
			},
			&cli.StringFlag{
				Name:  "install",
				Value: string(dpdk.InstallSource),
				Usage: fmt.Sprintf("how to install the DPDK tools (%v)", dpdk.SupportedInstallMethods()),
			},
			&cli.BoolFlag{
				Name:  "no-reboot",
				Usage: "do not reboot even when new kernel parameters are pending",
			},
			strictFlag(),
			&cli.BoolFlag{
				Name:  "label-node",
				Usage: "label this host's Kubernetes node with the provisioning result",
			},
			&cli.StringFlag{
				Name:  "kubeconfig",
				Usage: "kubeconfig used with --label-node (default: KUBECONFIG, ~/.kube/config, in-cluster)",
			},
			&cli.StringFlag{
				Name:  "metrics-textfile",
				Usage: "write run metrics to this file for the node-exporter textfile collector",
			},
			outputFlag(),
			formatFlag(serializer.FormatTable),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := configFrom(ctx)
			applySetupFlags(cmd, cfg)

			req, err := buildRequest(cmd, cfg)
			if err != nil {
				return err
			}
			req.RunID = runIDFrom(ctx)

			p, err := buildProvisioner(cmd, cfg)
			if err != nil {
				return err
			}

			rep, runErr := p.Run(ctx, req)
			if rep != nil {
				if err := writeResult(ctx, cmd, rep); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}

// applySetupFlags overrides configuration values with flags the user set.
func applySetupFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("driver") {
		cfg.Driver.Name = cmd.String("driver")
	}
	if cmd.IsSet("install") {
		cfg.Install.Method = cmd.String("install")
	}
	if cmd.IsSet("kubeconfig") {
		cfg.Kubeconfig = cmd.String("kubeconfig")
	}
	if cmd.IsSet("metrics-textfile") {
		cfg.MetricsTextfile = cmd.String("metrics-textfile")
	}
	if cmd.Bool("no-reboot") {
		cfg.NoReboot = true
	}
	if cmd.Bool("label-node") {
		cfg.LabelNode = true
	}
}

func buildRequest(cmd *cli.Command, cfg *config.Config) (provisioner.Request, error) {
	hp, err := parseHugePages(cmd)
	if err != nil {
		return provisioner.Request{}, err
	}

	return provisioner.Request{
		NICs:            splitNICs(cmd.StringSlice("nics")),
		Driver:          cfg.Driver.Name,
		HugePages:       hp,
		NoReboot:        cfg.NoReboot,
		LabelNode:       cfg.LabelNode,
		MetricsTextfile: cfg.MetricsTextfile,
	}, nil
}

// buildProvisioner wires the host implementations from the configuration.
func buildProvisioner(cmd *cli.Command, cfg *config.Config) (*provisioner.Provisioner, error) {
	policy, err := parsePolicy(cmd, cfg.FailurePolicy)
	if err != nil {
		return nil, err
	}
	runner := hostexec.NewRunner(hostexec.WithPolicy(policy))

	method, err := dpdk.ParseInstallMethod(cfg.Install.Method)
	if err != nil {
		return nil, err
	}
	var tooling dpdk.Installer
	switch method {
	case dpdk.InstallPackage:
		tooling = &dpdk.PackageInstaller{
			Runner:    runner,
			OSRelease: cfg.Install.OSRelease,
			Devbind:   cfg.Install.PackageDevbind,
			Packages:  cfg.Install.Packages,
		}
	default:
		tooling = &dpdk.SourceInstaller{
			Repository:  cfg.Install.Repository,
			SourceDir:   cfg.Install.SourceDir,
			DestDir:     cfg.Install.DestDir,
			Interpreter: cfg.Install.Interpreter,
		}
	}

	reconciler, err := newReconciler(cfg, runner)
	if err != nil {
		return nil, err
	}

	p := &provisioner.Provisioner{
		Tooling:  tooling,
		Grub:     reconciler,
		Driver:   &kmod.Loader{Runner: runner, ModulesLoadDir: cfg.Driver.ModulesLoadDir},
		Service:  &systemd.Installer{UnitDir: cfg.Service.UnitDir},
		UnitName: cfg.Service.UnitName,
		Rebooter: &systemd.Login1Rebooter{Fallback: &systemd.CommandRebooter{Runner: runner}},
		NodeName: node.Name,
		Policy:   policy,
	}

	if cfg.LabelNode {
		cs, err := client.New(cfg.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client for --label-node: %w", err)
		}
		p.Labeler = &node.Labeler{Client: cs}
	}

	return p, nil
}

func newReconciler(cfg *config.Config, runner hostexec.Interface) (*grub.Reconciler, error) {
	regenerate, err := cfg.Grub.RegenerateArgs()
	if err != nil {
		return nil, err
	}
	return grub.NewReconciler(
		grub.WithConfigPath(cfg.Grub.DefaultsPath),
		grub.WithCmdlinePath(cfg.Grub.CmdlinePath),
		grub.WithKey(cfg.Grub.Key),
		grub.WithRegenerator(&grub.CommandRegenerator{Runner: runner, Command: regenerate}),
	), nil
}
