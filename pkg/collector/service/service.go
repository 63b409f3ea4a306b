// Package service reports the state of the DPDK bind unit.
package service

import (
	"context"
	"log/slog"

	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
	"github.com/NVIDIA/dpdk-provisioner/pkg/systemd"
)

const unknownState = "unknown"

// Collector queries systemd for the active state of Units. It never fails
// because systemd is unreachable; states are reported as "unknown" instead.
type Collector struct {
	Units      []string
	NewManager func(ctx context.Context) (systemd.Manager, error)
}

// Collect returns one subtype per unit with its active_state.
func (c *Collector) Collect(ctx context.Context) (*measurement.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var mgr systemd.Manager
	if c.NewManager != nil {
		m, err := c.NewManager(ctx)
		if err != nil {
			slog.Warn("systemd not reachable, unit state unknown", "error", err)
		} else {
			mgr = m
			defer mgr.Close()
		}
	}

	res := &measurement.Measurement{Type: measurement.TypeService}
	for _, unit := range c.Units {
		state := unknownState
		if mgr != nil {
			s, err := mgr.ActiveState(ctx, unit)
			if err != nil {
				slog.Warn("failed to query unit", "unit", unit, "error", err)
			} else {
				state = s
			}
		}
		res.Subtypes = append(res.Subtypes, &measurement.Subtype{
			Name: unit,
			Data: map[string]measurement.Reading{"active_state": measurement.Str(state)},
		})
	}
	return res, nil
}
