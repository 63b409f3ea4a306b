package os

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/NVIDIA/dpdk-provisioner/pkg/grub"
	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
)

// Boot identifiers are not reported.
var filterOutBootKeys = []string{
	"root",
	"BOOT_IMAGE",
	"rd.luks.uuid",
	"resume",
}

// collectGrub reports the command line configured in the boot-loader
// defaults file.
func (c *Collector) collectGrub(ctx context.Context) ([]string, *measurement.Subtype, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	value, found, err := grub.ReadConfigured(c.GrubDefaultsPath, c.CmdlineKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("boot-loader defaults file not found", "path", c.GrubDefaultsPath)
			return nil, &measurement.Subtype{Name: "grub", Data: map[string]measurement.Reading{}}, nil
		}
		return nil, nil, err
	}
	if !found {
		slog.Warn("no kernel command line definition", "path", c.GrubDefaultsPath, "key", c.CmdlineKey)
	}

	args := strings.Fields(value)
	return args, &measurement.Subtype{
		Name: "grub",
		Data: measurement.FilterOut(params(args), filterOutBootKeys),
	}, nil
}

// collectCmdline reports the running kernel's parameters.
func (c *Collector) collectCmdline(ctx context.Context) ([]string, *measurement.Subtype, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	cmdline, err := os.ReadFile(c.CmdlinePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read kernel command line: %w", err)
	}

	if !utf8.Valid(cmdline) {
		return nil, nil, fmt.Errorf("kernel command line contains invalid UTF-8")
	}

	const maxSize = 1 << 20
	if len(cmdline) > maxSize {
		return nil, nil, fmt.Errorf("kernel command line exceeds maximum size of %d bytes", maxSize)
	}

	args := strings.Fields(string(cmdline))
	return args, &measurement.Subtype{
		Name: "cmdline",
		Data: measurement.FilterOut(params(args), filterOutBootKeys),
	}, nil
}

// params maps each key=value token to its value; bare flags get an empty
// value. Only the first '=' splits, so root=PARTUUID=xyz keeps its value.
func params(args []string) map[string]measurement.Reading {
	props := make(map[string]measurement.Reading, len(args))
	for _, a := range args {
		key, val, _ := strings.Cut(a, "=")
		props[key] = measurement.Str(val)
	}
	return props
}
