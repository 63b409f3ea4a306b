package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/dpdk-provisioner/pkg/measurement"
	"github.com/NVIDIA/dpdk-provisioner/pkg/systemd"
)

type stateManager struct {
	states map[string]string
	closed bool
}

func (m *stateManager) Reload(context.Context) error          { return nil }
func (m *stateManager) Enable(context.Context, string) error  { return nil }
func (m *stateManager) Restart(context.Context, string) error { return nil }
func (m *stateManager) Close()                                { m.closed = true }

func (m *stateManager) ActiveState(_ context.Context, name string) (string, error) {
	s, ok := m.states[name]
	if !ok {
		return "", errors.New("no such unit")
	}
	return s, nil
}

func stateOf(t *testing.T, m *measurement.Measurement, unit string) string {
	t.Helper()
	st := m.GetSubtype(unit)
	require.NotNil(t, st)
	r, ok := st.Get("active_state")
	require.True(t, ok)
	return r.String()
}

func TestCollector_Collect(t *testing.T) {
	mgr := &stateManager{states: map[string]string{"dpdk.service": "active"}}
	c := &Collector{
		Units: []string{"dpdk.service", "missing.service"},
		NewManager: func(context.Context) (systemd.Manager, error) {
			return mgr, nil
		},
	}

	m, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, measurement.TypeService, m.Type)
	assert.Equal(t, "active", stateOf(t, m, "dpdk.service"))
	assert.Equal(t, "unknown", stateOf(t, m, "missing.service"))
	assert.True(t, mgr.closed)
}

func TestCollector_NoSystemd(t *testing.T) {
	c := &Collector{
		Units: []string{"dpdk.service"},
		NewManager: func(context.Context) (systemd.Manager, error) {
			return nil, errors.New("no system bus")
		},
	}

	m, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unknown", stateOf(t, m, "dpdk.service"))
}
