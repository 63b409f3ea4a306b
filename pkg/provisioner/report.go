package provisioner

import (
	"time"

	"github.com/NVIDIA/dpdk-provisioner/pkg/dpdk"
	"github.com/NVIDIA/dpdk-provisioner/pkg/grub"
)

// StepStatus is the outcome of a step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// Step names, in execution order.
const (
	StepValidate = "validate"
	StepTooling  = "tooling"
	StepGrub     = "grub"
	StepDriver   = "driver"
	StepService  = "service"
	StepLabel    = "label"
	StepMetrics  = "metrics"
	StepReboot   = "reboot"
)

// StepResult records one executed step.
type StepResult struct {
	Name     string        `json:"name" yaml:"name"`
	Status   StepStatus    `json:"status" yaml:"status"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty"`
}

// Report is the outcome of a provisioning run.
type Report struct {
	RunID          string        `json:"runId" yaml:"runId"`
	Steps          []StepResult  `json:"steps" yaml:"steps"`
	Tooling        *dpdk.Tooling `json:"tooling,omitempty" yaml:"tooling,omitempty"`
	Grub           *grub.Result  `json:"grub,omitempty" yaml:"grub,omitempty"`
	UnitPath       string        `json:"unitPath,omitempty" yaml:"unitPath,omitempty"`
	RebootRequired bool          `json:"rebootRequired" yaml:"rebootRequired"`
	Rebooted       bool          `json:"rebooted" yaml:"rebooted"`
}

// Step returns the result for the named step.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
