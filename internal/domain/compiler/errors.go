package compiler

import (
	"fmt"
	"strings"
)

// Error codes for compiler operations.
const (
	ErrCodeProviderFailed   = "PROVIDER_FAILED"
	ErrCodeProviderNotFound = "PROVIDER_NOT_FOUND"
	ErrCodeStepDuplicate    = "STEP_DUPLICATE"
	ErrCodePlanFailed       = "PLAN_FAILED"
	ErrCodeApplyFailed      = "APPLY_FAILED"
	ErrCodeCheckFailed      = "CHECK_FAILED"
)

// StepError is a compile, check or apply failure tied to a stage or step.
type StepError struct {
	Code       string
	Message    string
	Provider   string
	StepID     string
	Suggestion string
	Underlying error
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	var parts []string

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider %q", e.Provider))
	}
	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step %q", e.StepID))
	}

	msg := e.Message
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s: %s", strings.Join(parts, ", "), e.Message)
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain support.
func (e *StepError) Unwrap() error {
	return e.Underlying
}

// Format returns a fully formatted error with all details.
func (e *StepError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Provider != "" {
		fmt.Fprintf(&b, "\n  Stage: %s", e.Provider)
	}
	if e.StepID != "" {
		fmt.Fprintf(&b, "\n  Step: %s", e.StepID)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %s", e.Underlying.Error())
	}
	return b.String()
}

// WithProvider returns a new StepError with provider set.
func (e *StepError) WithProvider(provider string) *StepError {
	return &StepError{
		Code:       e.Code,
		Message:    e.Message,
		Provider:   provider,
		StepID:     e.StepID,
		Suggestion: e.Suggestion,
		Underlying: e.Underlying,
	}
}

// NewProviderFailedError creates an error for a stage that failed to compile.
func NewProviderFailedError(provider string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeProviderFailed,
		Message:    "stage failed to compile steps",
		Provider:   provider,
		Suggestion: fmt.Sprintf("Check the inventory values the %s stage uses.", provider),
		Underlying: err,
	}
}

// NewProviderNotFoundError creates an error for a stage name with no provider.
func NewProviderNotFoundError(provider string, known []string) *StepError {
	return &StepError{
		Code:       ErrCodeProviderNotFound,
		Message:    "no provider handles this stage",
		Provider:   provider,
		Suggestion: fmt.Sprintf("Known stages: %s", strings.Join(known, ", ")),
	}
}

// NewStepDuplicateError creates an error for a duplicate step ID.
func NewStepDuplicateError(stepID string) *StepError {
	return &StepError{
		Code:       ErrCodeStepDuplicate,
		Message:    "step with this ID already exists in the sequence",
		StepID:     stepID,
		Suggestion: "Each step must have a unique ID. Check for the same package or path listed twice.",
	}
}

// NewCheckFailedError creates an error for a fact query that failed.
func NewCheckFailedError(stepID string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeCheckFailed,
		Message:    "step status check failed",
		StepID:     stepID,
		Suggestion: "The host could not be queried. Check connectivity and that sudo works without a password.",
		Underlying: err,
	}
}

// NewPlanFailedError creates an error for a step that could not describe
// its change.
func NewPlanFailedError(stepID string, err error) *StepError {
	return &StepError{
		Code:       ErrCodePlanFailed,
		Message:    "step failed to plan",
		StepID:     stepID,
		Underlying: err,
	}
}

// NewApplyFailedError creates an error for a step action that failed.
// Apply failures end the run.
func NewApplyFailedError(stepID string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeApplyFailed,
		Message:    "step failed to apply",
		StepID:     stepID,
		Suggestion: "Fix the cause and re-run; steps that already converged are skipped.",
		Underlying: err,
	}
}
