// Package firewall opens firewalld services for HTTP, HTTPS and TFTP, in
// both the runtime and the permanent configuration.
package firewall

import (
	"fmt"
	"slices"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/validation"
)

// Stage is the firewall stage name.
const Stage = "firewall"

// Services are the firewalld services the staging host serves.
var Services = []string{"http", "https", "tftp"}

// Provider compiles the firewall stage.
type Provider struct{}

// NewProvider creates a new firewall Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the stage name.
func (p *Provider) Name() string {
	return Stage
}

// Compile returns one step per service.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	if !ctx.Supports(host.CapFirewall) {
		return nil, nil
	}

	steps := make([]compiler.Step, 0, len(Services))
	for _, svc := range Services {
		steps = append(steps, NewServiceStep(svc))
	}
	return steps, nil
}

// ServiceStep allows one firewalld service.
type ServiceStep struct {
	service string
	id      compiler.StepID
}

// NewServiceStep creates a new ServiceStep.
func NewServiceStep(service string) *ServiceStep {
	return &ServiceStep{
		service: service,
		id:      compiler.MustNewStepID(Stage + ":service:" + service),
	}
}

// ID returns the step identifier.
func (s *ServiceStep) ID() compiler.StepID {
	return s.id
}

// Check looks for the service among the active ones. Names are compared as
// whole words, so "https" does not satisfy "http".
func (s *ServiceStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	if err := validation.ValidateFirewallService(s.service); err != nil {
		return compiler.StatusUnknown, err
	}
	active, err := ctx.Facts().FirewallServices(ctx.Context())
	if commandutil.IsCommandNotFound(err) {
		return compiler.StatusUnknown, fmt.Errorf("firewalld is not installed: %w", err)
	}
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if slices.Contains(active, s.service) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *ServiceStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "firewall service", s.service, "", "runtime+permanent"), nil
}

// Apply adds the service to the runtime, then the permanent configuration.
func (s *ServiceStep) Apply(ctx compiler.RunContext) error {
	arg := "--add-service=" + s.service
	if _, err := commandutil.Run(ctx, true, "firewall-cmd", arg); err != nil {
		return err
	}
	_, err := commandutil.Run(ctx, true, "firewall-cmd", arg, "--permanent")
	return err
}

// Explain provides a human-readable explanation.
func (s *ServiceStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Open Firewall Service",
		"Allows the "+s.service+" service through firewalld now and after reboot.",
		[]string{"https://firewalld.org/documentation/man-pages/firewall-cmd.html"},
	)
}
