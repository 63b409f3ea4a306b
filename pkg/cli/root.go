/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dpdk-provisioner/pkg/config"
	"github.com/NVIDIA/dpdk-provisioner/pkg/logging"
)

const name = "dpdkctl"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type contextKey int

const (
	configKey contextKey = iota
	runIDKey
)

// Execute runs the CLI and exits with 1 on error or 2 when interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Prepare a host for DPDK",
		Version:               fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "write logs as JSON",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file (DPDKCTL_* environment variables override it)",
				Sources: cli.EnvVars("DPDKCTL_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file exported before the configuration is read",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			setupCmd(),
			grubCmd(),
			statusCmd(),
		},
	}
}

// before installs the logger and loads the configuration for subcommands.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := os.Getenv("LOG_LEVEL")
	if cmd.Bool("debug") {
		level = "debug"
	}
	logging.SetDefaultStructuredLogger(name, version, level, cmd.Bool("log-json"))

	runID := uuid.NewString()
	slog.SetDefault(slog.Default().With("run_id", runID))

	if envFile := cmd.String("env-file"); envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return ctx, err
		}
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, runIDKey, runID)
	return ctx, nil
}

// configFrom returns the loaded configuration, or the defaults when a
// command runs without the root Before hook.
func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}
