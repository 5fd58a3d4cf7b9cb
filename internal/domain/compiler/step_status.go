package compiler

// StepStatus represents the state of a step as observed by Check or as
// reported after execution.
type StepStatus string

const (
	// StatusSatisfied indicates the desired state is already met; no action runs.
	StatusSatisfied StepStatus = "satisfied"
	// StatusNeedsApply indicates the step's action must run.
	StatusNeedsApply StepStatus = "needs-apply"
	// StatusApplied indicates the action ran and succeeded.
	StatusApplied StepStatus = "applied"
	// StatusUnknown indicates the state could not be determined.
	StatusUnknown StepStatus = "unknown"
	// StatusFailed indicates the check or the action failed.
	StatusFailed StepStatus = "failed"
	// StatusSkipped indicates a precondition is not met, so the step does not apply.
	StatusSkipped StepStatus = "skipped"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// NeedsAction returns true if this status requires execution or attention.
func (s StepStatus) NeedsAction() bool {
	switch s {
	case StatusNeedsApply, StatusUnknown, StatusFailed:
		return true
	case StatusSatisfied, StatusApplied, StatusSkipped:
		return false
	}
	return false
}

// IsTerminal returns true if this status represents a final state.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusSatisfied, StatusApplied, StatusFailed, StatusSkipped:
		return true
	case StatusNeedsApply, StatusUnknown:
		return false
	}
	return false
}

// Succeeded returns true for outcomes that let a run continue.
func (s StepStatus) Succeeded() bool {
	return s == StatusSatisfied || s == StatusApplied || s == StatusSkipped
}
