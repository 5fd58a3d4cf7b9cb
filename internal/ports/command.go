// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"io"
	"strings"
)

// CommandResult represents the result of executing a command on the target host.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout with surrounding whitespace removed.
func (r CommandResult) Output() string {
	return strings.TrimSpace(r.Stdout)
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Stdin   string
}

// Shell executes command lines on the target host.
// Command lines are interpreted by a POSIX shell on the host, so callers
// are responsible for quoting arguments.
type Shell interface {
	// Run executes a command line and returns its result.
	// A non-zero exit code is reported in the result, not as an error.
	Run(ctx context.Context, command string) (CommandResult, error)

	// RunWithInput executes a command line with stdin attached.
	RunWithInput(ctx context.Context, command string, stdin io.Reader) (CommandResult, error)

	// Close releases the underlying connection.
	Close() error
}
