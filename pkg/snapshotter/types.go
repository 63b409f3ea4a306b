package snapshotter

import (
	"context"

	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
)

// Snapshotter is the interface that wraps the Measure method.
type Snapshotter interface {
	Measure(ctx context.Context) (*Snapshot, error)
}

// Snapshot is the host status document.
type Snapshot struct {
	APIVersion   string                     `json:"apiVersion" yaml:"apiVersion"`
	Kind         string                     `json:"kind" yaml:"kind"`
	Metadata     map[string]string          `json:"metadata" yaml:"metadata"`
	Measurements []*measurement.Measurement `json:"measurements" yaml:"measurements"`
}

// NewSnapshot returns an empty snapshot with its header set.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		APIVersion: FullAPIVersion,
		Kind:       Kind,
		Metadata:   make(map[string]string),
	}
}

// Get returns the measurement of type t, or nil.
func (s *Snapshot) Get(t measurement.Type) *measurement.Measurement {
	for _, m := range s.Measurements {
		if m.Type == t {
			return m
		}
	}
	return nil
}
