package dpdk

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
)

const (
	DefaultOSRelease      = "/etc/os-release"
	DefaultPackageDevbind = "/usr/bin/dpdk-devbind.py"
)

// PackageManager is a distribution package manager.
type PackageManager struct {
	Name     string
	Install  []string
	Packages []string
}

// Command returns the full install command line.
func (m PackageManager) Command() []string {
	cmd := make([]string, 0, len(m.Install)+len(m.Packages))
	cmd = append(cmd, m.Install...)
	return append(cmd, m.Packages...)
}

var (
	dnf    = PackageManager{Name: "dnf", Install: []string{"dnf", "install", "-y"}, Packages: []string{"dpdk", "dpdk-tools"}}
	yum    = PackageManager{Name: "yum", Install: []string{"yum", "install", "-y"}, Packages: []string{"dpdk", "dpdk-tools"}}
	apt    = PackageManager{Name: "apt-get", Install: []string{"apt-get", "install", "-y"}, Packages: []string{"dpdk"}}
	zypper = PackageManager{Name: "zypper", Install: []string{"zypper", "--non-interactive", "install"}, Packages: []string{"dpdk", "dpdk-tools"}}
)

// OSRelease holds the os-release fields used to pick a package manager.
type OSRelease struct {
	ID        string
	IDLike    []string
	VersionID string
}

// ReadOSRelease parses an os-release file.
func ReadOSRelease(path string) (OSRelease, error) {
	f, err := os.Open(path)
	if err != nil {
		return OSRelease{}, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	var rel OSRelease
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "ID":
			rel.ID = value
		case "ID_LIKE":
			rel.IDLike = strings.Fields(value)
		case "VERSION_ID":
			rel.VersionID = value
		}
	}
	if err := scanner.Err(); err != nil {
		return OSRelease{}, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}
	return rel, nil
}

// DetectPackageManager maps an os-release to a package manager.
func DetectPackageManager(rel OSRelease) (PackageManager, error) {
	for _, id := range append([]string{rel.ID}, rel.IDLike...) {
		switch id {
		case "fedora", "rhel", "centos", "rocky", "almalinux", "ol":
			if strings.HasPrefix(rel.VersionID, "7") && id != "fedora" {
				return yum, nil
			}
			return dnf, nil
		case "debian", "ubuntu":
			return apt, nil
		case "sles", "suse", "opensuse", "opensuse-leap":
			return zypper, nil
		}
	}
	return PackageManager{}, cerrors.New(cerrors.ErrCodeUnavailable,
		fmt.Sprintf("no supported package manager for %q", rel.ID))
}

// PackageInstaller installs DPDK with the host's package manager.
type PackageInstaller struct {
	Runner    hostexec.Interface
	OSRelease string
	Devbind   string

	// Packages overrides the package manager's default package list.
	Packages []string
}

// Install installs the packages and returns the configured devbind path.
func (p *PackageInstaller) Install(ctx context.Context) (Tooling, error) {
	path := p.OSRelease
	if path == "" {
		path = DefaultOSRelease
	}
	rel, err := ReadOSRelease(path)
	if err != nil {
		return Tooling{}, err
	}

	pm, err := DetectPackageManager(rel)
	if err != nil {
		return Tooling{}, err
	}
	if len(p.Packages) > 0 {
		pm.Packages = p.Packages
	}

	cmd := pm.Command()
	slog.Info("installing dpdk packages", "manager", pm.Name, "packages", pm.Packages)
	if err := p.Runner.Run(ctx, cmd[0], cmd[1:]...); err != nil {
		return Tooling{}, err
	}

	t := p.Expected()
	if _, err := os.Stat(t.Devbind); err != nil {
		slog.Warn("devbind tool not found after install", "path", t.Devbind, "error", err)
	}
	return t, nil
}

// Expected returns the configured devbind path.
func (p *PackageInstaller) Expected() Tooling {
	if p.Devbind == "" {
		return Tooling{Devbind: DefaultPackageDevbind}
	}
	return Tooling{Devbind: p.Devbind}
}
