// Package hostexec runs the external commands a provisioning run depends on
// (package managers, grub regeneration, modprobe) and applies the configured
// failure policy to their results.
package hostexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	utilexec "k8s.io/utils/exec"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
)

// Policy decides what happens when an external command fails.
type Policy string

const (
	// PolicyBestEffort logs failed commands and carries on.
	PolicyBestEffort Policy = "best-effort"

	// PolicyStrict turns a failed command into an error.
	PolicyStrict Policy = "strict"
)

// SupportedPolicies lists the accepted policy names.
func SupportedPolicies() []Policy {
	return []Policy{PolicyBestEffort, PolicyStrict}
}

// ParsePolicy converts s to a Policy. Empty input means best-effort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyBestEffort:
		return PolicyBestEffort, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", cerrors.New(cerrors.ErrCodeInvalidArgument,
			fmt.Sprintf("unknown failure policy %q, supported values: %v", s, SupportedPolicies()))
	}
}

// Interface runs a single command to completion.
type Interface interface {
	Run(ctx context.Context, name string, args ...string) error
}

// Runner executes commands on the host.
type Runner struct {
	exec   utilexec.Interface
	policy Policy
}

// Option configures a Runner.
type Option func(*Runner)

// WithExec overrides the exec implementation.
func WithExec(e utilexec.Interface) Option {
	return func(r *Runner) {
		r.exec = e
	}
}

// WithPolicy sets the failure policy.
func WithPolicy(p Policy) Option {
	return func(r *Runner) {
		r.policy = p
	}
}

// NewRunner returns a Runner using the host's exec and the best-effort policy
// unless overridden.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		exec:   utilexec.New(),
		policy: PolicyBestEffort,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the runner's failure policy.
func (r *Runner) Policy() Policy {
	return r.policy
}

// Run executes name with args. Output is logged at debug level.
// A non-zero exit is returned as an EXTERNAL_COMMAND error under the strict
// policy and only logged under best-effort. Context cancellation is always
// returned.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	start := time.Now()
	out, err := r.exec.CommandContext(ctx, name, args...).CombinedOutput()

	slog.Debug("command finished",
		"command", cmdline,
		"duration", time.Since(start).String(),
		"output", strings.TrimSpace(string(out)),
	)

	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	exitStatus := -1
	var exitErr utilexec.ExitError
	if errors.As(err, &exitErr) {
		exitStatus = exitErr.ExitStatus()
	}

	if r.policy == PolicyStrict {
		return cerrors.Wrap(cerrors.ErrCodeExternalCommand,
			fmt.Sprintf("command %q failed with exit status %d", cmdline, exitStatus), err)
	}

	slog.Warn("command failed, continuing",
		"command", cmdline,
		"exit_status", exitStatus,
		"error", err,
	)
	return nil
}
