// Package execution plans and runs a compiled step sequence: every step is
// checked immediately before it is applied, and the first failure ends the run.
package execution

import (
	"time"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID   compiler.StepID
	status   compiler.StepStatus
	err      error
	duration time.Duration
	diff     compiler.Diff
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID compiler.StepID, status compiler.StepStatus, err error) StepResult {
	return StepResult{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() compiler.StepID {
	return r.stepID
}

// Status returns the final status of the step: applied, satisfied, skipped
// or failed, or needs-apply in a dry run.
func (r StepResult) Status() compiler.StepStatus {
	return r.status
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long the check and action took.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Diff returns the change that was (or in a dry run would be) applied.
func (r StepResult) Diff() compiler.Diff {
	return r.diff
}

// Success returns true if the run may continue past this step.
func (r StepResult) Success() bool {
	return r.status.Succeeded()
}

// Applied returns true if the step's action ran.
func (r StepResult) Applied() bool {
	return r.status == compiler.StatusApplied
}

// Skipped returns true if the step's precondition was not met.
func (r StepResult) Skipped() bool {
	return r.status == compiler.StatusSkipped
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// WithDiff returns a new StepResult with diff set.
func (r StepResult) WithDiff(d compiler.Diff) StepResult {
	r.diff = d
	return r
}
