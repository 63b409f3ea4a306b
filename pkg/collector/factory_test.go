package collector_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/dpdk-provisioner/pkg/collector"
	cos "github.com/NVIDIA/dpdk-provisioner/pkg/collector/os"
	"github.com/NVIDIA/dpdk-provisioner/pkg/collector/service"
	"github.com/NVIDIA/dpdk-provisioner/pkg/systemd"
)

func TestDefaultFactory_CreateOSCollector(t *testing.T) {
	factory := collector.NewDefaultFactory()
	factory.GrubDefaultsPath = "/srv/grub"
	factory.Driver = "igb_uio"

	c, ok := factory.CreateOSCollector().(*cos.Collector)
	require.True(t, ok, "expected *os.Collector")
	assert.Equal(t, "/srv/grub", c.GrubDefaultsPath)
	assert.Equal(t, "/proc/cmdline", c.CmdlinePath)
	assert.Equal(t, "igb_uio", c.Driver)
}

func TestDefaultFactory_CreateServiceCollector(t *testing.T) {
	factory := collector.NewDefaultFactory()
	factory.Units = []string{"test.service"}
	factory.NewManager = func(context.Context) (systemd.Manager, error) {
		return nil, assert.AnError
	}

	c, ok := factory.CreateServiceCollector().(*service.Collector)
	require.True(t, ok, "expected *service.Collector")
	assert.Equal(t, []string{"test.service"}, c.Units)

	m, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Subtypes, 1)
}
