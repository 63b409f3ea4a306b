package provisioner

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dpdkctl_step_duration_seconds",
			Help:    "Time taken by each provisioning step",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"step"},
	)

	stepTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dpdkctl_step_total",
			Help: "Total number of provisioning steps by outcome",
		},
		[]string{"step", "status"}, // ok, skipped or failed
	)

	rebootRequired = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dpdkctl_reboot_required",
			Help: "1 when the last run left kernel parameters pending a reboot",
		},
	)
)

// writeTextfile exports the default registry for the node-exporter
// textfile collector.
func writeTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
