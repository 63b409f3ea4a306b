package systemd

import (
	"context"
	"log/slog"

	"github.com/godbus/dbus/v5"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
)

// Rebooter restarts the host.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// CommandRebooter runs the reboot command.
type CommandRebooter struct {
	Runner hostexec.Interface
}

// Reboot runs reboot(8).
func (r *CommandRebooter) Reboot(ctx context.Context) error {
	return r.Runner.Run(ctx, "reboot")
}

const (
	logindDest   = "org.freedesktop.login1"
	logindPath   = "/org/freedesktop/login1"
	logindReboot = "org.freedesktop.login1.Manager.Reboot"
)

// Login1Rebooter asks systemd-logind to reboot. When logind is unreachable
// or refuses the request, for example through polkit, Fallback runs instead.
type Login1Rebooter struct {
	Fallback Rebooter

	// request sends the reboot call; nil uses the system bus.
	request func(ctx context.Context) error
}

// Reboot requests a reboot from logind and waits for its reply.
func (r *Login1Rebooter) Reboot(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	request := r.request
	if request == nil {
		request = requestLogindReboot
	}

	slog.Info("rebooting host")
	err := request(ctx)
	if err == nil {
		return nil
	}
	if r.Fallback == nil {
		return err
	}
	slog.Warn("logind reboot failed, using reboot command", "error", err)
	return r.Fallback.Reboot(ctx)
}

func requestLogindReboot(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeUnavailable, "failed to connect to system bus", err)
	}
	defer conn.Close()

	call := conn.Object(logindDest, dbus.ObjectPath(logindPath)).CallWithContext(ctx, logindReboot, 0, false)
	if call.Err != nil {
		return cerrors.Wrap(cerrors.ErrCodeUnavailable, "logind refused reboot", call.Err)
	}
	return nil
}
