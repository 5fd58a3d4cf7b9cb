// Package service enables and starts the systemd units the staging host
// depends on.
package service

import (
	"fmt"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/validation"
)

// Stage is the services stage name.
const Stage = "services"

// Units started by the services stage.
var Units = []string{"tftp.socket", "nginx.service"}

// Provider compiles the services stage.
type Provider struct{}

// NewProvider creates a new service Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the stage name.
func (p *Provider) Name() string {
	return Stage
}

// Compile returns one step per unit.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	if !ctx.Supports(host.CapServices) {
		return nil, nil
	}

	steps := make([]compiler.Step, 0, len(Units))
	for _, unit := range Units {
		steps = append(steps, NewEnableStep(Stage, unit))
	}
	return steps, nil
}

// EnableStep makes a unit active now and enabled at boot.
type EnableStep struct {
	unit string
	id   compiler.StepID
}

// NewEnableStep creates an EnableStep owned by stage.
func NewEnableStep(stage, unit string) *EnableStep {
	return &EnableStep{
		unit: unit,
		id:   compiler.MustNewStepID(stage + ":enable:" + unit),
	}
}

// ID returns the step identifier.
func (s *EnableStep) ID() compiler.StepID {
	return s.id
}

// Check is satisfied only when the unit is both active and enabled.
func (s *EnableStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	if err := validation.ValidateUnitName(s.unit); err != nil {
		return compiler.StatusUnknown, err
	}
	state, err := ctx.Facts().Service(ctx.Context(), s.unit)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if state.Active && state.Enabled {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *EnableStep) Plan(ctx compiler.RunContext) (compiler.Diff, error) {
	state, err := ctx.Facts().Service(ctx.Context(), s.unit)
	if err != nil {
		return compiler.Diff{}, err
	}
	return compiler.NewDiff(compiler.DiffTypeModify, "service", s.unit, state.String(), "active, enabled"), nil
}

// Apply runs systemctl enable --now.
func (s *EnableStep) Apply(ctx compiler.RunContext) error {
	_, err := commandutil.Run(ctx, true, "systemctl", "enable", "--now", s.unit)
	return err
}

// Explain provides a human-readable explanation.
func (s *EnableStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Enable Service",
		fmt.Sprintf("Starts %s and enables it at boot.", s.unit),
		[]string{"https://www.freedesktop.org/software/systemd/man/systemctl.html"},
	)
}
