package collector

import (
	"context"

	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
)

// Collector gathers one measurement from the host. Implementations honor
// context cancellation.
type Collector interface {
	Collect(ctx context.Context) (*measurement.Measurement, error)
}
