package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/dbus"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
)

// Manager is the subset of systemd operations the provisioner uses.
type Manager interface {
	Reload(ctx context.Context) error
	Enable(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
	ActiveState(ctx context.Context, name string) (string, error)
	Close()
}

// DBusManager implements Manager over the systemd D-Bus API.
type DBusManager struct {
	conn *dbus.Conn
}

// NewDBusManager connects to the system bus.
func NewDBusManager(ctx context.Context) (*DBusManager, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "failed to connect to systemd", err)
	}
	return &DBusManager{conn: conn}, nil
}

// Reload is the equivalent of systemctl daemon-reload.
func (m *DBusManager) Reload(ctx context.Context) error {
	if err := m.conn.ReloadContext(ctx); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeExternalCommand, "failed to reload systemd", err)
	}
	return nil
}

// Enable is the equivalent of systemctl enable.
func (m *DBusManager) Enable(ctx context.Context, name string) error {
	_, changes, err := m.conn.EnableUnitFilesContext(ctx, []string{name}, false, true)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeExternalCommand, fmt.Sprintf("failed to enable %s", name), err)
	}
	for _, c := range changes {
		slog.Debug("unit file change", "type", c.Type, "filename", c.Filename, "destination", c.Destination)
	}
	return nil
}

// Restart is the equivalent of systemctl restart; it waits for the job to finish.
func (m *DBusManager) Restart(ctx context.Context, name string) error {
	done := make(chan string, 1)
	if _, err := m.conn.RestartUnitContext(ctx, name, "replace", done); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeExternalCommand, fmt.Sprintf("failed to restart %s", name), err)
	}

	select {
	case result := <-done:
		if result != "done" {
			return cerrors.New(cerrors.ErrCodeExternalCommand, fmt.Sprintf("restart of %s finished with %q", name, result))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveState returns the unit's ActiveState, or "unknown" when systemd does
// not report it.
func (m *DBusManager) ActiveState(ctx context.Context, name string) (string, error) {
	units, err := m.conn.ListUnitsByNamesContext(ctx, []string{name})
	if err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeExternalCommand, fmt.Sprintf("failed to query %s", name), err)
	}
	if len(units) == 0 {
		return "unknown", nil
	}
	return units[0].ActiveState, nil
}

// Close closes the D-Bus connection.
func (m *DBusManager) Close() {
	m.conn.Close()
}

// Installer writes the bind unit and starts it.
type Installer struct {
	// Manager is used when set; otherwise Connect opens a connection for
	// the duration of Install.
	Manager Manager
	Connect func(ctx context.Context) (Manager, error)

	UnitDir string
}

// Install writes the unit to UnitDir, reloads systemd, enables the unit and
// restarts it. It returns the unit file path.
func (i *Installer) Install(ctx context.Context, spec UnitSpec) (string, error) {
	content, err := RenderUnit(spec)
	if err != nil {
		return "", err
	}

	dir := i.UnitDir
	if dir == "" {
		dir = DefaultUnitDir
	}
	path := filepath.Join(dir, spec.Name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to write %s", path), err)
	}

	slog.Debug("unit file written",
		"path", path,
		"size_bytes", len(content),
		"exec_start", spec.ExecStart(),
	)

	mgr := i.Manager
	if mgr == nil {
		connect := i.Connect
		if connect == nil {
			connect = func(ctx context.Context) (Manager, error) { return NewDBusManager(ctx) }
		}
		m, err := connect(ctx)
		if err != nil {
			return path, err
		}
		defer m.Close()
		mgr = m
	}

	if err := mgr.Reload(ctx); err != nil {
		return path, err
	}
	if err := mgr.Enable(ctx, spec.Name); err != nil {
		return path, err
	}
	if err := mgr.Restart(ctx, spec.Name); err != nil {
		return path, err
	}

	slog.Info("bind service installed", "unit", spec.Name, "nics", spec.NICs, "driver", spec.Driver)
	return path, nil
}
