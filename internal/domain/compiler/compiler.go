// Package compiler turns the inventory into an ordered sequence of
// check-then-act steps: inventory → providers → Sequence.
package compiler

import (
	"fmt"
)

// Compiler resolves stage names to providers and compiles them in order.
type Compiler struct {
	providers map[string]Provider
	order     []string
}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		providers: make(map[string]Provider),
	}
}

// RegisterProvider adds a provider. Registering a second provider under the
// same name replaces the first.
func (c *Compiler) RegisterProvider(provider Provider) {
	name := provider.Name()
	if _, ok := c.providers[name]; !ok {
		c.order = append(c.order, name)
	}
	c.providers[name] = provider
}

// Providers returns the registered providers in registration order.
func (c *Compiler) Providers() []Provider {
	out := make([]Provider, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.providers[name])
	}
	return out
}

// Lookup returns the provider registered under name.
func (c *Compiler) Lookup(name string) (Provider, bool) {
	p, ok := c.providers[name]
	return p, ok
}

// Compile compiles the named stages in the given order. Unknown names fail
// before any provider runs.
func (c *Compiler) Compile(ctx CompileContext, stages []string) (*Sequence, error) {
	for _, name := range stages {
		if _, ok := c.providers[name]; !ok {
			return nil, NewProviderNotFoundError(name, c.order)
		}
	}

	seq := NewSequence()
	for _, name := range stages {
		provider := c.providers[name]

		steps, err := provider.Compile(ctx)
		if err != nil {
			return nil, NewProviderFailedError(name, err)
		}
		if len(steps) == 0 {
			seq.markInapplicable(name)
			continue
		}

		for _, step := range steps {
			if err := seq.Add(step); err != nil {
				return nil, fmt.Errorf("provider %q: %w", name, err)
			}
		}
	}

	return seq, nil
}

// Sequence is the ordered list of steps a run executes.
type Sequence struct {
	steps        []Step
	ids          map[string]struct{}
	inapplicable []string
}

// NewSequence creates an empty Sequence.
func NewSequence() *Sequence {
	return &Sequence{ids: make(map[string]struct{})}
}

// Add appends a step. Step IDs are unique within a sequence.
func (s *Sequence) Add(step Step) error {
	id := step.ID().String()
	if _, dup := s.ids[id]; dup {
		return NewStepDuplicateError(id)
	}
	s.ids[id] = struct{}{}
	s.steps = append(s.steps, step)
	return nil
}

// Steps returns the steps in execution order.
func (s *Sequence) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Len returns the number of steps.
func (s *Sequence) Len() int {
	return len(s.steps)
}

// Inapplicable returns the stages that compiled to no steps on this host.
func (s *Sequence) Inapplicable() []string {
	return append([]string(nil), s.inapplicable...)
}

func (s *Sequence) markInapplicable(stage string) {
	s.inapplicable = append(s.inapplicable, stage)
}
