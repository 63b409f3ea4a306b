package os

import (
	"context"

	"github.com/NVIDIA/dpdk-provisioner/pkg/kmod"
	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
)

// collectKMod lists the loaded kernel modules.
func (c *Collector) collectKMod(ctx context.Context) (map[string]bool, *measurement.Subtype, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	mods, err := kmod.Loaded(c.ModulesPath)
	if err != nil {
		return nil, nil, err
	}

	readings := make(map[string]measurement.Reading, len(mods))
	for name := range mods {
		readings[name] = measurement.Bool(true)
	}

	return mods, &measurement.Subtype{Name: "kmod", Data: readings}, nil
}
