// Package provisioner prepares a host for DPDK in one run: it installs the
// userspace tools, enables the IOMMU (and optionally huge pages) on the
// kernel command line, loads the userspace driver, installs the boot-time
// bind service and reboots when new kernel parameters are pending.
package provisioner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/dpdk-provisioner/pkg/dpdk"
	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
	"github.com/NVIDIA/dpdk-provisioner/pkg/grub"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hugepage"
	"github.com/NVIDIA/dpdk-provisioner/pkg/k8s/node"
	"github.com/NVIDIA/dpdk-provisioner/pkg/systemd"
)

// Request describes one provisioning run.
type Request struct {
	// RunID correlates logs and the report; generated when empty.
	RunID string

	NICs      []string
	Driver    string
	HugePages *hugepage.Config

	NoReboot        bool
	LabelNode       bool
	MetricsTextfile string
}

type GrubReconciler interface {
	Reconcile(ctx context.Context, hugePages *hugepage.Config) (*grub.Result, error)
}

type DriverLoader interface {
	Setup(ctx context.Context, driver string) error
}

type ServiceInstaller interface {
	Install(ctx context.Context, spec systemd.UnitSpec) (string, error)
}

type NodeLabeler interface {
	Label(ctx context.Context, name string, labels map[string]string) error
}

// Provisioner runs the provisioning steps against its collaborators.
type Provisioner struct {
	Tooling  dpdk.Installer
	Grub     GrubReconciler
	Driver   DriverLoader
	Service  ServiceInstaller
	UnitName string
	Rebooter systemd.Rebooter

	// Labeler is required only for requests with LabelNode.
	Labeler  NodeLabeler
	NodeName func() (string, error)

	// Policy decides whether EXTERNAL_COMMAND and UNAVAILABLE failures
	// abort the run.
	Policy hostexec.Policy
}

// Run executes the steps in order and returns the report. The report is
// returned with the steps run so far even when err is not nil.
func (p *Provisioner) Run(ctx context.Context, req Request) (*Report, error) {
	rep := &Report{RunID: req.RunID}
	if rep.RunID == "" {
		rep.RunID = uuid.NewString()
	}

	slog.Info("provisioning started",
		"run_id", rep.RunID,
		"nics", req.NICs,
		"driver", req.Driver,
		"hugepages", req.HugePages,
	)

	if err := p.step(ctx, rep, StepValidate, false, func(context.Context) error {
		return validate(req)
	}); err != nil {
		return rep, err
	}

	tooling := p.Tooling.Expected()
	if err := p.step(ctx, rep, StepTooling, false, func(ctx context.Context) error {
		t, err := p.Tooling.Install(ctx)
		if err != nil {
			return err
		}
		tooling = t
		return nil
	}); err != nil {
		return rep, err
	}
	rep.Tooling = &tooling

	if err := p.step(ctx, rep, StepGrub, false, func(ctx context.Context) error {
		res, err := p.Grub.Reconcile(ctx, req.HugePages)
		if err != nil {
			return err
		}
		rep.Grub = res
		rep.RebootRequired = res.RebootRequired
		return nil
	}); err != nil {
		return rep, err
	}

	if err := p.step(ctx, rep, StepDriver, false, func(ctx context.Context) error {
		return p.Driver.Setup(ctx, req.Driver)
	}); err != nil {
		return rep, err
	}

	if len(req.NICs) == 0 {
		p.skip(rep, StepService, "no NICs given, bind service not installed")
	} else if err := p.step(ctx, rep, StepService, false, func(ctx context.Context) error {
		path, err := p.Service.Install(ctx, systemd.UnitSpec{
			Name:        p.unitName(),
			Interpreter: tooling.Interpreter,
			Devbind:     tooling.Devbind,
			Driver:      req.Driver,
			NICs:        req.NICs,
		})
		rep.UnitPath = path
		return err
	}); err != nil {
		return rep, err
	}

	if !req.LabelNode {
		p.skip(rep, StepLabel, "not requested")
	} else if err := p.step(ctx, rep, StepLabel, true, func(ctx context.Context) error {
		return p.label(ctx, req.Driver, rep.RebootRequired)
	}); err != nil {
		return rep, err
	}

	if rep.RebootRequired {
		rebootRequired.Set(1)
	} else {
		rebootRequired.Set(0)
	}

	if req.MetricsTextfile == "" {
		p.skip(rep, StepMetrics, "no textfile configured")
	} else if err := p.step(ctx, rep, StepMetrics, true, func(context.Context) error {
		return writeTextfile(req.MetricsTextfile)
	}); err != nil {
		return rep, err
	}

	switch {
	case !rep.RebootRequired:
		p.skip(rep, StepReboot, "kernel parameters already active")
	case req.NoReboot:
		p.skip(rep, StepReboot, "reboot suppressed")
		slog.Warn("reboot required to apply kernel parameters", "run_id", rep.RunID)
	default:
		if err := p.step(ctx, rep, StepReboot, false, func(ctx context.Context) error {
			if err := p.Rebooter.Reboot(ctx); err != nil {
				return err
			}
			rep.Rebooted = true
			return nil
		}); err != nil {
			return rep, err
		}
	}

	slog.Info("provisioning finished",
		"run_id", rep.RunID,
		"reboot_required", rep.RebootRequired,
		"rebooted", rep.Rebooted,
	)
	return rep, nil
}

// step runs fn and records its outcome. A failure is swallowed when
// bestEffort is set or the failure policy tolerates it.
func (p *Provisioner) step(ctx context.Context, rep *Report, name string, bestEffort bool, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)

	res := StepResult{Name: name, Status: StepOK, Duration: d}
	if err != nil {
		res.Status = StepFailed
		res.Message = err.Error()
	}
	rep.Steps = append(rep.Steps, res)
	stepDuration.WithLabelValues(name).Observe(d.Seconds())
	stepTotal.WithLabelValues(name, string(res.Status)).Inc()

	switch {
	case err == nil:
		slog.Debug("step complete", "step", name, "duration", d.String())
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case bestEffort || p.tolerates(err):
		slog.Warn("step failed, continuing", "step", name, "error", err)
		return nil
	default:
		slog.Error("step failed", "step", name, "error", err)
		return fmt.Errorf("%s step failed: %w", name, err)
	}
}

func (p *Provisioner) skip(rep *Report, name, reason string) {
	rep.Steps = append(rep.Steps, StepResult{Name: name, Status: StepSkipped, Message: reason})
	stepTotal.WithLabelValues(name, string(StepSkipped)).Inc()
	slog.Info("step skipped", "step", name, "reason", reason)
}

func (p *Provisioner) tolerates(err error) bool {
	if p.Policy == hostexec.PolicyStrict {
		return false
	}
	return cerrors.IsCode(err, cerrors.ErrCodeExternalCommand) || cerrors.IsCode(err, cerrors.ErrCodeUnavailable)
}

func (p *Provisioner) unitName() string {
	if p.UnitName == "" {
		return systemd.DefaultUnitName
	}
	return p.UnitName
}

func (p *Provisioner) label(ctx context.Context, driver string, reboot bool) error {
	if p.Labeler == nil {
		return cerrors.New(cerrors.ErrCodeUnavailable, "node labelling requested without a kubernetes client")
	}
	nodeName := p.NodeName
	if nodeName == nil {
		nodeName = node.Name
	}
	name, err := nodeName()
	if err != nil {
		return err
	}
	return p.Labeler.Label(ctx, name, node.Labels(driver, reboot))
}

func validate(req Request) error {
	if strings.TrimSpace(req.Driver) == "" {
		return cerrors.New(cerrors.ErrCodeInvalidArgument, "driver is required")
	}
	for _, nic := range req.NICs {
		if nic == "" || strings.ContainsAny(nic, " \t\n") {
			return cerrors.New(cerrors.ErrCodeInvalidArgument, fmt.Sprintf("invalid NIC %q", nic))
		}
	}
	if req.HugePages != nil {
		if err := req.HugePages.Validate(); err != nil {
			return err
		}
	}
	return nil
}
