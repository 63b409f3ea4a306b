// Package dpdk installs the DPDK userspace tools that bind NICs to a
// userspace driver.
package dpdk

import (
	"context"
	"fmt"
	"strings"
)

// InstallMethod selects how the DPDK tools are obtained.
type InstallMethod string

const (
	// InstallSource clones the DPDK repository and copies its usertools.
	InstallSource InstallMethod = "source"

	// InstallPackage installs the distribution's DPDK packages.
	InstallPackage InstallMethod = "package"
)

// SupportedInstallMethods returns the accepted method names.
func SupportedInstallMethods() []string {
	return []string{string(InstallSource), string(InstallPackage)}
}

// ParseInstallMethod parses a method name, case-insensitively.
func ParseInstallMethod(s string) (InstallMethod, error) {
	switch InstallMethod(strings.ToLower(strings.TrimSpace(s))) {
	case InstallSource:
		return InstallSource, nil
	case InstallPackage:
		return InstallPackage, nil
	default:
		return "", fmt.Errorf("invalid install method %q, supported: %s",
			s, strings.Join(SupportedInstallMethods(), ", "))
	}
}

// Tooling locates the installed bind tool.
type Tooling struct {
	// Interpreter runs Devbind when set.
	Interpreter string `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`

	// Devbind is the path of dpdk-devbind.py.
	Devbind string `json:"devbind" yaml:"devbind"`
}

// Installer makes the DPDK tools available on the host.
type Installer interface {
	Install(ctx context.Context) (Tooling, error)

	// Expected returns where Install puts the tools, without installing.
	Expected() Tooling
}
