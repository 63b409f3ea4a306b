// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli implements the command-line interface for dpdkctl.
//
// # Overview
//
// dpdkctl prepares a Linux host to run DPDK applications. It installs the
// DPDK user tools, enables the IOMMU (and optionally huge pages) on the
// kernel command line, loads the userspace NIC driver and installs a
// systemd unit that binds the selected NICs at every boot.
//
// # Commands
//
// setup - Provision the host (alias: provision):
//
//	dpdkctl setup -n ens1f0 -n ens1f1 [--driver vfio-pci] [--install source|package]
//	dpdkctl setup -n ens1f0 --hugepage-size 1G --hugepage-count 4 --no-reboot
//	dpdkctl setup -n ens1f0 --label-node --metrics-textfile /var/lib/node_exporter/dpdk.prom
//
// Runs every provisioning step and prints a report. Reboots when the
// running kernel lacks parameters that were just configured, unless
// --no-reboot is given.
//
// grub - Reconcile only the boot-loader defaults:
//
//	dpdkctl grub [--hugepage-size 2M --hugepage-count 1024] [--grub-defaults FILE]
//
// status - Report host readiness:
//
//	dpdkctl status [--format yaml|json|table] [--output FILE]
//
// # Configuration
//
// Settings are read from an optional YAML file (--config, DPDKCTL_CONFIG)
// and DPDKCTL_* environment variables, which take precedence. --env-file
// exports a dotenv file first. Flags override both.
//
// # Failure policy
//
// In the default best-effort policy, failures of external commands and
// unavailable host services are logged and provisioning continues. With
// --strict (or DPDKCTL_FAILURE_POLICY=strict) they abort the run. File
// I/O errors and invalid arguments always abort.
//
// # Exit codes
//
//	0  success
//	1  a command failed
//	2  interrupted
package cli
