// Package systemd installs the boot-time unit that binds NICs to the DPDK
// driver and talks to systemd over D-Bus.
package systemd

import (
	"fmt"
	"io"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
)

const (
	// DefaultUnitName is the name of the bind service.
	DefaultUnitName = "dpdk.service"

	// DefaultUnitDir holds administrator supplied units.
	DefaultUnitDir = "/etc/systemd/system"
)

// UnitSpec describes the bind service.
type UnitSpec struct {
	// Name is the unit file name, e.g. dpdk.service.
	Name string

	// Interpreter runs Devbind when set, e.g. /usr/bin/python3.
	Interpreter string

	// Devbind is the path of dpdk-devbind.py.
	Devbind string

	// Driver is the driver NICs are bound to.
	Driver string

	// NICs are the devices to bind, by interface name or PCI address.
	NICs []string
}

// ExecStart returns the command line the unit runs.
func (s UnitSpec) ExecStart() string {
	parts := make([]string, 0, len(s.NICs)+3)
	if s.Interpreter != "" {
		parts = append(parts, s.Interpreter)
	}
	parts = append(parts, s.Devbind, "--bind="+s.Driver)
	parts = append(parts, s.NICs...)
	return strings.Join(parts, " ")
}

// Validate checks the fields required to render the unit.
func (s UnitSpec) Validate() error {
	switch {
	case s.Name == "":
		return cerrors.New(cerrors.ErrCodeInvalidArgument, "unit name is required")
	case s.Devbind == "":
		return cerrors.New(cerrors.ErrCodeInvalidArgument, "devbind path is required")
	case s.Driver == "":
		return cerrors.New(cerrors.ErrCodeInvalidArgument, "driver is required")
	case len(s.NICs) == 0:
		return cerrors.New(cerrors.ErrCodeInvalidArgument, "at least one NIC is required")
	}
	return nil
}

// RenderUnit serializes the bind service unit file.
func RenderUnit(s UnitSpec) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "DPDK Service"),
		unit.NewUnitOption("Unit", "After", "network-online.target"),
		unit.NewUnitOption("Unit", "Wants", "network-online.target"),
		unit.NewUnitOption("Service", "Type", "oneshot"),
		unit.NewUnitOption("Service", "RemainAfterExit", "yes"),
		unit.NewUnitOption("Service", "ExecStart", s.ExecStart()),
		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	}

	b, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize unit %s: %w", s.Name, err)
	}
	return b, nil
}
