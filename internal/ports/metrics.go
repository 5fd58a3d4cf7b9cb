package ports

import "time"

// RunRecorder receives step and run outcomes for reporting.
type RunRecorder interface {
	// ObserveStep records the outcome of a single step.
	ObserveStep(provider, status string, duration time.Duration)

	// ObserveRun records the outcome of a whole run.
	ObserveRun(success bool, duration time.Duration)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

// ObserveStep does nothing.
func (NopRecorder) ObserveStep(_, _ string, _ time.Duration) {}

// ObserveRun does nothing.
func (NopRecorder) ObserveRun(_ bool, _ time.Duration) {}

// Ensure NopRecorder implements RunRecorder.
var _ RunRecorder = NopRecorder{}
