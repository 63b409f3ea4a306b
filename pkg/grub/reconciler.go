package grub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hugepage"
)

const (
	// DefaultConfigPath is the boot-loader defaults file.
	DefaultConfigPath = "/etc/default/grub"

	// DefaultCmdlinePath exposes the running kernel's command line.
	DefaultCmdlinePath = "/proc/cmdline"
)

// DefaultRegenerateCommand rebuilds the EFI grub configuration.
var DefaultRegenerateCommand = []string{"grub2-mkconfig", "-o", "/boot/efi/EFI/centos/grub.cfg"}

// Regenerator rebuilds the final boot configuration from the defaults file.
type Regenerator interface {
	Regenerate(ctx context.Context) error
}

// CommandRegenerator regenerates the boot configuration by running Command.
type CommandRegenerator struct {
	Runner  hostexec.Interface
	Command []string
}

// Regenerate runs the configured command.
func (g *CommandRegenerator) Regenerate(ctx context.Context) error {
	if len(g.Command) == 0 {
		return cerrors.New(cerrors.ErrCodeInvalidArgument, "grub regenerate command is empty")
	}
	return g.Runner.Run(ctx, g.Command[0], g.Command[1:]...)
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	// Rewritten is true when the defaults file was changed.
	Rewritten bool `json:"rewritten" yaml:"rewritten"`

	// RebootRequired is true when the running kernel does not yet use the
	// required parameters.
	RebootRequired bool `json:"rebootRequired" yaml:"rebootRequired"`

	// Cmdline is the command line value in the defaults file after the pass.
	Cmdline string `json:"cmdline,omitempty" yaml:"cmdline,omitempty"`

	// Inserted lists the tokens added during this pass, in insertion order.
	Inserted []string `json:"inserted,omitempty" yaml:"inserted,omitempty"`

	// LiveMissing names the required parameters absent from the running kernel.
	LiveMissing []string `json:"liveMissing,omitempty" yaml:"liveMissing,omitempty"`
}

// Reconciler patches the boot-loader defaults file.
type Reconciler struct {
	configPath  string
	cmdlinePath string
	key         string
	regenerator Regenerator
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithConfigPath sets the defaults file path.
func WithConfigPath(path string) Option {
	return func(r *Reconciler) {
		r.configPath = path
	}
}

// WithCmdlinePath sets the live command line path.
func WithCmdlinePath(path string) Option {
	return func(r *Reconciler) {
		r.cmdlinePath = path
	}
}

// WithKey sets the command line variable name.
func WithKey(key string) Option {
	return func(r *Reconciler) {
		r.key = key
	}
}

// WithRegenerator sets the regeneration step.
func WithRegenerator(g Regenerator) Option {
	return func(r *Reconciler) {
		r.regenerator = g
	}
}

// NewReconciler returns a Reconciler with the default paths and a
// grub2-mkconfig regenerator using a best-effort runner.
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		configPath:  DefaultConfigPath,
		cmdlinePath: DefaultCmdlinePath,
		key:         DefaultCmdlineKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.regenerator == nil {
		r.regenerator = &CommandRegenerator{
			Runner:  hostexec.NewRunner(),
			Command: DefaultRegenerateCommand,
		}
	}
	return r
}

// Reconcile inserts the missing required parameters into the defaults file,
// regenerates the boot configuration and decides whether a reboot is needed.
//
// hugePages is optional. It is validated before any file is touched; an
// invalid value fails with an INVALID_ARGUMENT error. Unreadable or
// unwritable files fail with IO_ERROR, and the defaults file is only written
// after both files were read successfully.
func (r *Reconciler) Reconcile(ctx context.Context, hugePages *hugepage.Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if hugePages != nil {
		if err := hugePages.Validate(); err != nil {
			return nil, err
		}
	}

	params := RequiredParameters(hugePages)

	f, err := os.OpenFile(r.configPath, os.O_RDWR, 0)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to open %s", r.configPath), err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to read %s", r.configPath), err)
	}

	live, err := os.ReadFile(r.cmdlinePath)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to read %s", r.cmdlinePath), err)
	}

	res := &Result{}
	lines := splitLines(string(content), r.key)
	patched := false
	for i := range lines {
		if !lines[i].Defining {
			continue
		}
		if patched {
			slog.Warn("ignoring duplicate kernel command line definition",
				"path", r.configPath,
				"line", i+1,
			)
			continue
		}
		patched = true

		text, inserted, value := r.patchLine(lines[i].Text, params, hugePages)
		lines[i].Text = text
		res.Inserted = inserted
		res.Cmdline = value
	}

	if !patched {
		slog.Warn("no kernel command line definition found, defaults file left unchanged",
			"path", r.configPath,
			"key", r.key,
		)
	}

	if len(res.Inserted) > 0 {
		if err := rewrite(f, joinLines(lines)); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to write %s", r.configPath), err)
		}
		res.Rewritten = true
		slog.Info("boot-loader defaults rewritten",
			"path", r.configPath,
			"inserted", res.Inserted,
		)
	} else {
		slog.Debug("boot-loader defaults already up to date", "path", r.configPath)
	}

	if err := r.regenerator.Regenerate(ctx); err != nil {
		return nil, fmt.Errorf("failed to regenerate boot configuration: %w", err)
	}

	liveArgs := strings.Fields(string(live))
	for _, p := range params {
		if !p.Present(liveArgs) {
			res.LiveMissing = append(res.LiveMissing, p.Name)
		}
	}

	res.RebootRequired = res.Rewritten || len(res.LiveMissing) > 0

	slog.Debug("grub reconciliation complete",
		"rewritten", res.Rewritten,
		"reboot_required", res.RebootRequired,
		"live_missing", res.LiveMissing,
	)

	return res, nil
}

// patchLine prepends missing parameters to a defining line, IOMMU first.
// It returns the new line text, the inserted tokens and the new value.
func (r *Reconciler) patchLine(text string, params []Parameter, hugePages *hugepage.Config) (string, []string, string) {
	value, tail := cmdlineValue(text, r.key)
	var inserted []string

	for _, p := range params {
		args := strings.Fields(value)
		if p.Present(args) {
			continue
		}
		if p.Name == "hugepages" && HugePagesSet(args) {
			warnStackedHugePages(args, hugePages)
		}
		value = prepend(p.Token, value)
		inserted = append(inserted, p.Token)
	}

	if len(inserted) == 0 {
		return text, nil, value
	}

	newText := formatCmdline(r.key, value) + tail
	if strings.HasSuffix(text, "\r") {
		newText += "\r"
	}
	return newText, inserted, value
}

// warnStackedHugePages notes that an existing reservation stays on the line
// behind the requested one.
func warnStackedHugePages(args []string, hugePages *hugepage.Config) {
	size, _ := lookup(args, "hugepagesz")
	count, _ := lookup(args, "hugepages")
	slog.Warn("huge pages already configured with different values, prepending requested reservation",
		"configured_size", size,
		"configured_count", count,
		"requested", hugePages.Token(),
	)
}

// rewrite truncates f and writes content from the start.
func rewrite(f *os.File, content string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte(content), 0); err != nil {
		return err
	}
	return f.Sync()
}
