package dpdk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec/hostexectest"
)

func TestParseInstallMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    InstallMethod
		wantErr bool
	}{
		{"source", InstallSource, false},
		{"Package", InstallPackage, false},
		{" source ", InstallSource, false},
		{"", "", true},
		{"rpm", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInstallMethod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	}
}

func TestSourceInstaller_Install(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "dpdk")
	dest := filepath.Join(tmp, "bin", "dpdk")

	var fetched string
	s := &SourceInstaller{
		Repository:  DefaultRepository,
		SourceDir:   src,
		DestDir:     dest,
		Interpreter: DefaultInterpreter,
		fetch: func(_ context.Context, repository, dir string) error {
			fetched = repository
			writeTree(t, dir, map[string]string{
				"usertools/dpdk-devbind.py":        "#!/usr/bin/env python3\n",
				"usertools/dpdk-hugepages.py":      "#!/usr/bin/env python3\n",
				"usertools/telemetry/endpoints.py": "",
				"lib/eal/eal.c":                    "",
			})
			return nil
		},
	}

	// stale content from an earlier run is replaced
	writeTree(t, dest, map[string]string{"usertools/stale.py": ""})

	tooling, err := s.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultRepository, fetched)
	assert.Equal(t, DefaultInterpreter, tooling.Interpreter)
	assert.Equal(t, filepath.Join(dest, "usertools", "dpdk-devbind.py"), tooling.Devbind)

	info, err := os.Stat(tooling.Devbind)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	assert.FileExists(t, filepath.Join(dest, "usertools", "telemetry", "endpoints.py"))
	assert.NoFileExists(t, filepath.Join(dest, "usertools", "stale.py"))
	assert.NoDirExists(t, filepath.Join(dest, "lib"))
}

func TestSourceInstaller_FetchError(t *testing.T) {
	s := &SourceInstaller{
		SourceDir: t.TempDir(),
		DestDir:   t.TempDir(),
		fetch: func(context.Context, string, string) error {
			return cerrors.New(cerrors.ErrCodeUnavailable, "offline")
		},
	}

	_, err := s.Install(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnavailable))
}

func TestSourceInstaller_MissingUsertools(t *testing.T) {
	s := &SourceInstaller{
		SourceDir: t.TempDir(),
		DestDir:   t.TempDir(),
		fetch:     func(context.Context, string, string) error { return nil },
	}

	_, err := s.Install(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeIO))
}

func TestNewSourceInstaller(t *testing.T) {
	s := NewSourceInstaller()
	assert.Equal(t, "/tmp/dpdk", s.SourceDir)
	assert.Equal(t, "/usr/local/bin/dpdk", s.DestDir)
	assert.Equal(t, "/usr/bin/python3", s.Interpreter)
	assert.Equal(t, Tooling{
		Interpreter: "/usr/bin/python3",
		Devbind:     "/usr/local/bin/dpdk/usertools/dpdk-devbind.py",
	}, s.Expected())

	var _ Installer = s
	var _ Installer = &PackageInstaller{}
	assert.Equal(t, "/usr/bin/dpdk-devbind.py", (&PackageInstaller{}).Expected().Devbind)
}

func TestDetectPackageManager(t *testing.T) {
	tests := []struct {
		name    string
		rel     OSRelease
		want    string
		wantErr bool
	}{
		{"centos 8", OSRelease{ID: "centos", IDLike: []string{"rhel", "fedora"}, VersionID: "8"}, "dnf", false},
		{"centos 7", OSRelease{ID: "centos", IDLike: []string{"rhel", "fedora"}, VersionID: "7"}, "yum", false},
		{"rocky", OSRelease{ID: "rocky", VersionID: "9.4"}, "dnf", false},
		{"ubuntu", OSRelease{ID: "ubuntu", IDLike: []string{"debian"}, VersionID: "24.04"}, "apt-get", false},
		{"derivative by id_like", OSRelease{ID: "pop", IDLike: []string{"ubuntu", "debian"}}, "apt-get", false},
		{"sles", OSRelease{ID: "sles", VersionID: "15.5"}, "zypper", false},
		{"unknown", OSRelease{ID: "alpine"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectPackageManager(tt.rel)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnavailable))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestReadOSRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(`NAME="Rocky Linux"
# comment
ID="rocky"
ID_LIKE="rhel centos fedora"
VERSION_ID='9.4'
`), 0o644))

	rel, err := ReadOSRelease(path)
	require.NoError(t, err)
	assert.Equal(t, "rocky", rel.ID)
	assert.Equal(t, []string{"rhel", "centos", "fedora"}, rel.IDLike)
	assert.Equal(t, "9.4", rel.VersionID)

	_, err = ReadOSRelease(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeIO))
}

func TestPackageInstaller_Install(t *testing.T) {
	tmp := t.TempDir()
	osRelease := filepath.Join(tmp, "os-release")
	require.NoError(t, os.WriteFile(osRelease, []byte("ID=ubuntu\nID_LIKE=debian\n"), 0o644))

	rec := &hostexectest.Recorder{}
	p := &PackageInstaller{Runner: rec, OSRelease: osRelease, Devbind: filepath.Join(tmp, "dpdk-devbind.py")}

	tooling, err := p.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"apt-get install -y dpdk"}, rec.Commands)
	assert.Empty(t, tooling.Interpreter)
	assert.Equal(t, p.Devbind, tooling.Devbind)
}

func TestPackageInstaller_CustomPackagesAndFailure(t *testing.T) {
	osRelease := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(osRelease, []byte("ID=fedora\n"), 0o644))

	boom := errors.New("exit status 1")
	rec := &hostexectest.Recorder{Fail: map[string]error{"dnf": boom}}
	p := &PackageInstaller{Runner: rec, OSRelease: osRelease, Packages: []string{"dpdk-devel"}}

	_, err := p.Install(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"dnf install -y dpdk-devel"}, rec.Commands)
}
