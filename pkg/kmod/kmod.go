// Package kmod loads the userspace I/O kernel driver and keeps it loaded
// across reboots.
package kmod

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
)

const (
	// DefaultModulesLoadDir is read by systemd-modules-load at boot.
	DefaultModulesLoadDir = "/etc/modules-load.d"

	// DefaultProcModules lists the loaded kernel modules.
	DefaultProcModules = "/proc/modules"

	// DefaultDriver is the driver used when none is given.
	DefaultDriver = "vfio-pci"
)

// KnownDrivers are the userspace drivers DPDK binds NICs to.
var KnownDrivers = []string{"vfio-pci", "uio_pci_generic", "igb_uio"}

// Loader persists and loads a kernel driver.
type Loader struct {
	Runner         hostexec.Interface
	ModulesLoadDir string
}

// Setup writes <ModulesLoadDir>/<driver>.conf and loads the driver with modprobe.
func (l *Loader) Setup(ctx context.Context, driver string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	driver = strings.TrimSpace(driver)
	if driver == "" || strings.ContainsAny(driver, "/ \t\n") {
		return cerrors.New(cerrors.ErrCodeInvalidArgument, fmt.Sprintf("invalid driver name %q", driver))
	}

	if suggestion, known := Suggest(driver); !known {
		slog.Warn("driver is not a known DPDK userspace driver",
			"driver", driver,
			"did_you_mean", suggestion,
		)
	}

	dir := l.ModulesLoadDir
	if dir == "" {
		dir = DefaultModulesLoadDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to create %s", dir), err)
	}

	conf := filepath.Join(dir, driver+".conf")
	if err := os.WriteFile(conf, []byte(driver+"\n"), 0o644); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to write %s", conf), err)
	}
	slog.Debug("module load configuration written", "path", conf)

	if err := l.Runner.Run(ctx, "modprobe", driver); err != nil {
		return fmt.Errorf("failed to load driver %s: %w", driver, err)
	}

	slog.Info("driver configured", "driver", driver)
	return nil
}

// Suggest returns the known driver closest to driver and whether driver is
// itself known.
func Suggest(driver string) (string, bool) {
	best, bestDist := "", -1
	for _, k := range KnownDrivers {
		if k == driver {
			return k, true
		}
		d := levenshtein.ComputeDistance(driver, k)
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, false
}

// ModuleName converts a driver name to the form listed in /proc/modules.
func ModuleName(driver string) string {
	return strings.ReplaceAll(driver, "-", "_")
}

// Loaded retrieves the set of loaded kernel modules from path (normally /proc/modules).
func Loaded(path string) (map[string]bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kernel modules: %w", err)
	}

	mods := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		// Module name is the first field
		fields := strings.Fields(line)
		if len(fields) > 0 {
			mods[fields[0]] = true
		}
	}

	return mods, nil
}

// IsLoaded reports whether driver appears in the module list at path.
func IsLoaded(path, driver string) (bool, error) {
	mods, err := Loaded(path)
	if err != nil {
		return false, err
	}
	return mods[ModuleName(driver)], nil
}
