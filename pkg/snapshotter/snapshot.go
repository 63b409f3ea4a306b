package snapshotter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/dpdk-provisioner/pkg/collector"
	"github.com/NVIDIA/dpdk-provisioner/pkg/k8s/node"
	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
)

// NodeSnapshotter collects the host status. Collectors run in parallel.
type NodeSnapshotter struct {
	// Version is the tool version recorded in the metadata.
	Version string

	// Factory is the collector factory to use. If nil, the default factory is used.
	Factory collector.Factory
}

// Measure runs all collectors and returns the assembled snapshot. If any
// collector fails, the whole snapshot fails.
func (n *NodeSnapshotter) Measure(ctx context.Context) (*Snapshot, error) {
	factory := n.Factory
	if factory == nil {
		factory = collector.NewDefaultFactory()
	}

	slog.Debug("starting status collection")

	start := time.Now()
	defer func() {
		snapshotCollectionDuration.Observe(time.Since(start).Seconds())
	}()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	snap := NewSnapshot()

	g.Go(func() error {
		defer observe("metadata", time.Now())
		name, err := node.Name()
		if err != nil {
			slog.Warn("failed to determine node name", "error", err)
		}
		mu.Lock()
		snap.Metadata["version"] = n.Version
		snap.Metadata["node"] = name
		snap.Metadata["timestamp"] = start.UTC().Format(time.RFC3339)
		mu.Unlock()
		return nil
	})

	run := func(label string, c collector.Collector) {
		g.Go(func() error {
			defer observe(label, time.Now())
			m, err := c.Collect(ctx)
			if err != nil {
				slog.Error("collector failed", "collector", label, "error", err)
				return fmt.Errorf("failed to collect %s status: %w", label, err)
			}
			mu.Lock()
			snap.Measurements = append(snap.Measurements, m)
			mu.Unlock()
			return nil
		})
	}

	run("os", factory.CreateOSCollector())
	run("service", factory.CreateServiceCollector())

	if err := g.Wait(); err != nil {
		snapshotCollectionTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	snapshotCollectionTotal.WithLabelValues("success").Inc()

	sort.Slice(snap.Measurements, func(i, j int) bool {
		return snap.Measurements[i].Type < snap.Measurements[j].Type
	})

	slog.Debug("status collection complete", slog.Int("measurements", len(snap.Measurements)))
	return snap, nil
}

func observe(label string, start time.Time) {
	snapshotCollectorDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
}

// Readiness returns the readiness subtype of the os measurement, or nil.
func (s *Snapshot) Readiness() *measurement.Subtype {
	m := s.Get(measurement.TypeOS)
	if m == nil {
		return nil
	}
	return m.GetSubtype("readiness")
}
