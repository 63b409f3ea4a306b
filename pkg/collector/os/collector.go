package os

import (
	"context"

	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
)

// Collector reads boot, kernel and memory state from host files.
type Collector struct {
	GrubDefaultsPath string
	CmdlinePath      string
	CmdlineKey       string
	ModulesPath      string
	HugePagesRoot    string

	// Driver is checked for the driver_loaded readiness flag.
	Driver string
}

// Collect gathers all subtypes. A missing defaults file or sysfs tree yields
// an empty subtype; other read failures are returned.
func (c *Collector) Collect(ctx context.Context) (*measurement.Measurement, error) {
	configured, grubST, err := c.collectGrub(ctx)
	if err != nil {
		return nil, err
	}

	live, cmdlineST, err := c.collectCmdline(ctx)
	if err != nil {
		return nil, err
	}

	mods, kmodST, err := c.collectKMod(ctx)
	if err != nil {
		return nil, err
	}

	hpST, err := c.collectHugePages(ctx)
	if err != nil {
		return nil, err
	}

	return &measurement.Measurement{
		Type: measurement.TypeOS,
		Subtypes: []*measurement.Subtype{
			grubST,
			cmdlineST,
			kmodST,
			hpST,
			readiness(configured, live, mods, c.Driver),
		},
	}, nil
}
