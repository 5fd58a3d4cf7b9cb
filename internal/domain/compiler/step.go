package compiler

// Step is one idempotent check-then-act unit run against the target host.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// Check reads host facts and reports whether the step is already
	// satisfied, needs to be applied, or does not apply at all (skipped).
	Check(ctx RunContext) (StepStatus, error)

	// Plan returns the diff describing what Apply would change.
	Plan(ctx RunContext) (Diff, error)

	// Apply issues the step's external action. It is only called after
	// Check returned StatusNeedsApply.
	Apply(ctx RunContext) error

	// Explain returns human-readable context for this step.
	Explain(ctx ExplainContext) Explanation
}
