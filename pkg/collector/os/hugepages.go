package os

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/NVIDIA/dpdk-provisioner/pkg/hugepage"
	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
)

// collectHugePages reports each pool as <size>.total, <size>.free and
// <size>.reserved (human readable bytes held by the pool).
func (c *Collector) collectHugePages(ctx context.Context) (*measurement.Subtype, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readings := make(map[string]measurement.Reading)
	pools, err := hugepage.ReadSysfs(c.HugePagesRoot)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		slog.Warn("huge page pools not available", "path", c.HugePagesRoot)
	}

	for _, p := range pools {
		name := p.Name()
		readings[name+".total"] = measurement.Uint(p.Total)
		readings[name+".free"] = measurement.Uint(p.Free)
		readings[name+".reserved"] = measurement.Str(humanize.IBytes(p.Total * p.PageSizeKB * 1024))
	}

	return &measurement.Subtype{Name: "hugepages", Data: readings}, nil
}
