package compiler

import (
	"context"

	"github.com/felixgeelhaar/okd4prov/internal/domain/facts"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// RunContext is passed to every Check, Plan and Apply. It bundles the
// cancellation context with the host descriptor, the shell to the host and
// the logger, so steps never reach for process-wide state.
type RunContext struct {
	ctx    context.Context
	host   host.Descriptor
	shell  ports.Shell
	facts  *facts.Gatherer
	logger ports.Logger
	sudo   bool
	dryRun bool
}

// NewRunContext creates a RunContext with the given context and no host.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{ctx: ctx}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// Host returns the target host descriptor.
func (r RunContext) Host() host.Descriptor {
	return r.host
}

// WithHost returns a new RunContext for the given host.
func (r RunContext) WithHost(d host.Descriptor) RunContext {
	r.host = d
	return r
}

// Shell returns the shell connected to the target host.
func (r RunContext) Shell() ports.Shell {
	return r.shell
}

// Facts returns a fact gatherer bound to the run's shell.
func (r RunContext) Facts() *facts.Gatherer {
	return r.facts
}

// Sudo reports whether privileged commands are prefixed with sudo.
func (r RunContext) Sudo() bool {
	return r.sudo
}

// WithShell returns a new RunContext that runs commands through shell.
func (r RunContext) WithShell(shell ports.Shell, sudo bool) RunContext {
	r.shell = shell
	r.sudo = sudo
	r.facts = facts.NewGatherer(shell, sudo)
	return r
}

// Logger returns the run logger, which may be nil.
func (r RunContext) Logger() ports.Logger {
	return r.logger
}

// WithLogger returns a new RunContext with logger set.
func (r RunContext) WithLogger(logger ports.Logger) RunContext {
	r.logger = logger
	return r
}

// Debug logs through the run logger when one is set.
func (r RunContext) Debug(msg string, fields ...ports.Field) {
	if r.logger != nil {
		r.logger.Debug(r.ctx, msg, fields...)
	}
}

// Warn logs through the run logger when one is set.
func (r RunContext) Warn(msg string, fields ...ports.Field) {
	if r.logger != nil {
		r.logger.Warn(r.ctx, msg, fields...)
	}
}

// DryRun returns whether this is a dry-run execution.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// WithDryRun returns a new RunContext with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	r.dryRun = dryRun
	return r
}

// ExplainContext provides context for generating step explanations.
type ExplainContext struct {
	verbose bool
}

// NewExplainContext creates a new ExplainContext.
func NewExplainContext() ExplainContext {
	return ExplainContext{}
}

// Verbose returns whether verbose explanations are requested.
func (e ExplainContext) Verbose() bool {
	return e.verbose
}

// WithVerbose returns a new ExplainContext with verbose mode set.
func (e ExplainContext) WithVerbose(verbose bool) ExplainContext {
	e.verbose = verbose
	return e
}
