package execution

import (
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// Planner checks every step of a sequence without applying anything.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan checks each step in sequence order. Steps are not applied, so a step
// whose input an earlier step would create (the installer binary, a rendered
// file) plans as skipped or needs-apply from the host's current state.
func (p *Planner) Plan(ctx compiler.RunContext, seq *compiler.Sequence) (*Plan, error) {
	plan := NewExecutionPlan()
	plan.SetInapplicable(seq.Inapplicable())

	for _, step := range seq.Steps() {
		if err := ctx.Context().Err(); err != nil {
			return nil, err
		}

		entry, err := p.planStep(step, ctx)
		if err != nil {
			return nil, err
		}
		ctx.Debug("planned step",
			ports.F("step", step.ID().String()),
			ports.F("status", entry.Status().String()))
		plan.Add(entry)
	}

	return plan, nil
}

// planStep checks a single step and generates a PlanEntry.
func (p *Planner) planStep(step compiler.Step, ctx compiler.RunContext) (PlanEntry, error) {
	status, err := step.Check(ctx)
	if err != nil {
		return PlanEntry{}, compiler.NewCheckFailedError(step.ID().String(), err).WithProvider(step.ID().Provider())
	}

	var diff compiler.Diff
	if status == compiler.StatusNeedsApply {
		diff, err = step.Plan(ctx)
		if err != nil {
			return PlanEntry{}, compiler.NewPlanFailedError(step.ID().String(), err).WithProvider(step.ID().Provider())
		}
	}

	return NewPlanEntry(step, status, diff), nil
}
