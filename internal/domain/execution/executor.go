package execution

import (
	"time"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// Executor runs a sequence one step at a time. Each step is checked
// immediately before it is applied, so facts reflect the effects of the
// steps before it. The first failure stops the run; nothing is rolled back.
type Executor struct {
	dryRun   bool
	recorder ports.RunRecorder
	progress func(StepResult)
}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{recorder: ports.NopRecorder{}}
}

// WithDryRun returns an Executor that checks and plans but never applies.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	c := *e
	c.dryRun = dryRun
	return &c
}

// WithRecorder returns an Executor that reports outcomes to r.
func (e *Executor) WithRecorder(r ports.RunRecorder) *Executor {
	c := *e
	if r == nil {
		r = ports.NopRecorder{}
	}
	c.recorder = r
	return &c
}

// WithProgress returns an Executor that calls fn after every step.
func (e *Executor) WithProgress(fn func(StepResult)) *Executor {
	c := *e
	c.progress = fn
	return &c
}

// Execute runs the sequence. It returns the results of every step that ran
// and, when a step failed or the context was cancelled, the error that
// ended the run.
func (e *Executor) Execute(ctx compiler.RunContext, seq *compiler.Sequence) ([]StepResult, error) {
	ctx = ctx.WithDryRun(e.dryRun)
	results := make([]StepResult, 0, seq.Len())
	start := time.Now()

	for _, step := range seq.Steps() {
		if err := ctx.Context().Err(); err != nil {
			e.recorder.ObserveRun(false, time.Since(start))
			return results, err
		}

		result := e.executeStep(step, ctx)
		results = append(results, result)
		e.recorder.ObserveStep(step.ID().Provider(), result.Status().String(), result.Duration())
		e.log(ctx, result)
		if e.progress != nil {
			e.progress(result)
		}

		if !result.Success() && result.Status() != compiler.StatusNeedsApply {
			e.recorder.ObserveRun(false, time.Since(start))
			return results, result.Error()
		}
	}

	e.recorder.ObserveRun(true, time.Since(start))
	return results, nil
}

// executeStep runs check-then-act for one step.
func (e *Executor) executeStep(step compiler.Step, ctx compiler.RunContext) StepResult {
	id := step.ID()
	start := time.Now()
	fail := func(err *compiler.StepError) StepResult {
		return NewStepResult(id, compiler.StatusFailed, err.WithProvider(id.Provider())).WithDuration(time.Since(start))
	}

	status, err := step.Check(ctx)
	if err != nil {
		return fail(compiler.NewCheckFailedError(id.String(), err))
	}

	switch status {
	case compiler.StatusSatisfied, compiler.StatusSkipped:
		return NewStepResult(id, status, nil).WithDuration(time.Since(start))
	case compiler.StatusNeedsApply:
	default:
		return fail(compiler.NewCheckFailedError(id.String(), &unexpectedStatusError{status: status}))
	}

	diff, err := step.Plan(ctx)
	if err != nil {
		return fail(compiler.NewPlanFailedError(id.String(), err))
	}

	if ctx.DryRun() {
		return NewStepResult(id, compiler.StatusNeedsApply, nil).WithDiff(diff).WithDuration(time.Since(start))
	}

	if err := step.Apply(ctx); err != nil {
		return fail(compiler.NewApplyFailedError(id.String(), err)).WithDiff(diff)
	}

	return NewStepResult(id, compiler.StatusApplied, nil).WithDiff(diff).WithDuration(time.Since(start))
}

func (e *Executor) log(ctx compiler.RunContext, r StepResult) {
	logger := ctx.Logger()
	if logger == nil {
		return
	}
	fields := []ports.Field{
		ports.F("step", r.StepID().String()),
		ports.F("status", r.Status().String()),
		ports.F("duration", r.Duration().String()),
	}
	if r.Error() != nil {
		logger.Error(ctx.Context(), "step failed", append(fields, ports.Err(r.Error()))...)
		return
	}
	if r.Applied() {
		logger.Info(ctx.Context(), "step applied", fields...)
		return
	}
	logger.Debug(ctx.Context(), "step checked", fields...)
}

type unexpectedStatusError struct {
	status compiler.StepStatus
}

func (e *unexpectedStatusError) Error() string {
	return "check returned unexpected status " + e.status.String()
}
