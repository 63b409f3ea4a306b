package systemd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec/hostexectest"
)

type fakeManager struct {
	calls  []string
	failOn string
	state  string
	closed bool
}

func (f *fakeManager) record(call string) error {
	f.calls = append(f.calls, call)
	if call == f.failOn {
		return cerrors.New(cerrors.ErrCodeExternalCommand, call+" failed")
	}
	return nil
}

func (f *fakeManager) Reload(context.Context) error { return f.record("reload") }

func (f *fakeManager) Enable(_ context.Context, name string) error {
	return f.record("enable " + name)
}

func (f *fakeManager) Restart(_ context.Context, name string) error {
	return f.record("restart " + name)
}

func (f *fakeManager) ActiveState(context.Context, string) (string, error) {
	return f.state, nil
}

func (f *fakeManager) Close() { f.closed = true }

func testSpec() UnitSpec {
	return UnitSpec{
		Name:        DefaultUnitName,
		Interpreter: "/usr/bin/python3",
		Devbind:     "/usr/local/bin/dpdk/usertools/dpdk-devbind.py",
		Driver:      "vfio-pci",
		NICs:        []string{"ens1f0", "ens1f1"},
	}
}

func TestUnitSpec_ExecStart(t *testing.T) {
	s := testSpec()
	assert.Equal(t,
		"/usr/bin/python3 /usr/local/bin/dpdk/usertools/dpdk-devbind.py --bind=vfio-pci ens1f0 ens1f1",
		s.ExecStart())

	s.Interpreter = ""
	s.Devbind = "/usr/bin/dpdk-devbind.py"
	s.NICs = []string{"0000:3b:00.0"}
	assert.Equal(t, "/usr/bin/dpdk-devbind.py --bind=vfio-pci 0000:3b:00.0", s.ExecStart())
}

func TestRenderUnit(t *testing.T) {
	content, err := RenderUnit(testSpec())
	require.NoError(t, err)

	opts, err := unit.DeserializeOptions(bytes.NewReader(content))
	require.NoError(t, err)

	got := map[string]string{}
	for _, o := range opts {
		got[o.Section+"."+o.Name] = o.Value
	}
	assert.Equal(t, "DPDK Service", got["Unit.Description"])
	assert.Equal(t, "network-online.target", got["Unit.After"])
	assert.Equal(t, "oneshot", got["Service.Type"])
	assert.Equal(t, "yes", got["Service.RemainAfterExit"])
	assert.Equal(t, testSpec().ExecStart(), got["Service.ExecStart"])
	assert.Equal(t, "multi-user.target", got["Install.WantedBy"])
}

func TestRenderUnit_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*UnitSpec)
	}{
		{"no name", func(s *UnitSpec) { s.Name = "" }},
		{"no devbind", func(s *UnitSpec) { s.Devbind = "" }},
		{"no driver", func(s *UnitSpec) { s.Driver = "" }},
		{"no nics", func(s *UnitSpec) { s.NICs = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSpec()
			tt.mutate(&s)
			_, err := RenderUnit(s)
			require.Error(t, err)
			assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInvalidArgument))
		})
	}
}

func TestInstaller_Install(t *testing.T) {
	dir := t.TempDir()
	m := &fakeManager{}
	i := &Installer{Manager: m, UnitDir: dir}

	path, err := i.Install(context.Background(), testSpec())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultUnitName), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ExecStart="+testSpec().ExecStart())

	assert.Equal(t, []string{"reload", "enable dpdk.service", "restart dpdk.service"}, m.calls)
}

func TestInstaller_InstallStopsOnFailure(t *testing.T) {
	m := &fakeManager{failOn: "enable dpdk.service"}
	i := &Installer{Manager: m, UnitDir: t.TempDir()}

	_, err := i.Install(context.Background(), testSpec())
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeExternalCommand))
	assert.Equal(t, []string{"reload", "enable dpdk.service"}, m.calls)
}

func TestInstaller_InstallUnwritableDir(t *testing.T) {
	m := &fakeManager{}
	i := &Installer{Manager: m, UnitDir: filepath.Join(t.TempDir(), "missing")}

	_, err := i.Install(context.Background(), testSpec())
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeIO))
	assert.Empty(t, m.calls)
}

func TestCommandRebooter(t *testing.T) {
	rec := &hostexectest.Recorder{}
	r := &CommandRebooter{Runner: rec}

	require.NoError(t, r.Reboot(context.Background()))
	assert.Equal(t, []string{"reboot"}, rec.Commands)
}

func TestLogin1Rebooter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Login1Rebooter{}
	err := r.Reboot(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLogin1Rebooter(t *testing.T) {
	refused := cerrors.New(cerrors.ErrCodeUnavailable, "interactive authentication required")

	tests := []struct {
		name         string
		requestErr   error
		withFallback bool
		wantErr      bool
		wantFallback bool
	}{
		{name: "accepted", withFallback: true},
		{name: "refused uses fallback", requestErr: refused, withFallback: true, wantFallback: true},
		{name: "refused without fallback", requestErr: refused, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &hostexectest.Recorder{}
			r := &Login1Rebooter{
				request: func(context.Context) error { return tt.requestErr },
			}
			if tt.withFallback {
				r.Fallback = &CommandRebooter{Runner: rec}
			}

			err := r.Reboot(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnavailable))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantFallback, rec.Ran("reboot"))
		})
	}
}

func TestInstaller_InstallConnects(t *testing.T) {
	m := &fakeManager{}
	i := &Installer{
		UnitDir: t.TempDir(),
		Connect: func(context.Context) (Manager, error) { return m, nil },
	}

	_, err := i.Install(context.Background(), testSpec())
	require.NoError(t, err)
	assert.Len(t, m.calls, 3)
	assert.True(t, m.closed)
}

func TestInstaller_InstallConnectFailure(t *testing.T) {
	i := &Installer{
		UnitDir: t.TempDir(),
		Connect: func(context.Context) (Manager, error) {
			return nil, cerrors.New(cerrors.ErrCodeUnavailable, "no bus")
		},
	}

	path, err := i.Install(context.Background(), testSpec())
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnavailable))
	assert.FileExists(t, path)
}
