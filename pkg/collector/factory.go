package collector

import (
	"context"

	"github.com/NVIDIA/dpdk-provisioner/pkg/collector/os"
	"github.com/NVIDIA/dpdk-provisioner/pkg/collector/service"
	"github.com/NVIDIA/dpdk-provisioner/pkg/grub"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hugepage"
	"github.com/NVIDIA/dpdk-provisioner/pkg/kmod"
	"github.com/NVIDIA/dpdk-provisioner/pkg/systemd"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateOSCollector() Collector
	CreateServiceCollector() Collector
}

// DefaultFactory creates collectors reading the live host.
type DefaultFactory struct {
	GrubDefaultsPath string
	CmdlinePath      string
	CmdlineKey       string
	ModulesPath      string
	HugePagesRoot    string
	Driver           string

	Units []string

	// NewManager connects to systemd for the service collector.
	NewManager func(ctx context.Context) (systemd.Manager, error)
}

// NewDefaultFactory creates a factory with the stock host paths.
func NewDefaultFactory() *DefaultFactory {
	return &DefaultFactory{
		GrubDefaultsPath: grub.DefaultConfigPath,
		CmdlinePath:      grub.DefaultCmdlinePath,
		CmdlineKey:       grub.DefaultCmdlineKey,
		ModulesPath:      kmod.DefaultProcModules,
		HugePagesRoot:    hugepage.DefaultSysfsRoot,
		Driver:           kmod.DefaultDriver,
		Units:            []string{systemd.DefaultUnitName},
		NewManager: func(ctx context.Context) (systemd.Manager, error) {
			return systemd.NewDBusManager(ctx)
		},
	}
}

// CreateOSCollector creates the boot, kernel and memory collector.
func (f *DefaultFactory) CreateOSCollector() Collector {
	return &os.Collector{
		GrubDefaultsPath: f.GrubDefaultsPath,
		CmdlinePath:      f.CmdlinePath,
		CmdlineKey:       f.CmdlineKey,
		ModulesPath:      f.ModulesPath,
		HugePagesRoot:    f.HugePagesRoot,
		Driver:           f.Driver,
	}
}

// CreateServiceCollector creates the systemd unit state collector.
func (f *DefaultFactory) CreateServiceCollector() Collector {
	return &service.Collector{
		Units:      f.Units,
		NewManager: f.NewManager,
	}
}
