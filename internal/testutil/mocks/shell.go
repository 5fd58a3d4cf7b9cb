// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// Shell is a thread-safe test double for ports.Shell.
// Results are keyed by the exact command line.
type Shell struct {
	mu       sync.RWMutex
	results  map[string][]ports.CommandResult
	errors   map[string]error
	fallback *ports.CommandResult
	calls    []ports.CommandCall
	closed   bool
}

// NewShell creates a new Shell mock.
func NewShell() *Shell {
	return &Shell{
		results: make(map[string][]ports.CommandResult),
		errors:  make(map[string]error),
		calls:   make([]ports.CommandCall, 0),
	}
}

// AddResult registers the result for a command line. Registering the same
// command more than once queues the results; the last one repeats.
func (m *Shell) AddResult(command string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[command] = append(m.results[command], result)
}

// AddOK registers a successful, silent result for a command line.
func (m *Shell) AddOK(command string) {
	m.AddResult(command, ports.CommandResult{})
}

// AddExit registers a result with the given exit code and no output.
func (m *Shell) AddExit(command string, code int) {
	m.AddResult(command, ports.CommandResult{ExitCode: code})
}

// AddOutput registers a successful result with stdout.
func (m *Shell) AddOutput(command, stdout string) {
	m.AddResult(command, ports.CommandResult{Stdout: stdout})
}

// AddError registers a command line that fails with a transport error.
func (m *Shell) AddError(command string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[command] = err
}

// SetFallback sets the result returned for unregistered commands.
// Without a fallback, unregistered commands return an error.
func (m *Shell) SetFallback(result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &result
}

// Run executes a mock command.
func (m *Shell) Run(ctx context.Context, command string) (ports.CommandResult, error) {
	return m.RunWithInput(ctx, command, nil)
}

// RunWithInput executes a mock command, recording stdin.
func (m *Shell) RunWithInput(_ context.Context, command string, stdin io.Reader) (ports.CommandResult, error) {
	var input string
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return ports.CommandResult{}, err
		}
		input = string(data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ports.CommandCall{Command: command, Stdin: input})

	if err, ok := m.errors[command]; ok {
		return ports.CommandResult{}, err
	}

	if queued := m.results[command]; len(queued) > 0 {
		result := queued[0]
		if len(queued) > 1 {
			m.results[command] = queued[1:]
		}
		return result, nil
	}

	if m.fallback != nil {
		return *m.fallback, nil
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s", command)
}

// Close marks the shell closed.
func (m *Shell) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Shell) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Calls returns all recorded invocations.
func (m *Shell) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Commands returns the recorded command lines in order.
func (m *Shell) Commands() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]string, len(m.calls))
	for i, c := range m.calls {
		commands[i] = c.Command
	}
	return commands
}

// Called reports whether command was run at least once.
func (m *Shell) Called(command string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.calls {
		if c.Command == command {
			return true
		}
	}
	return false
}

// Reset clears all registered results, errors, and recorded calls.
func (m *Shell) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string][]ports.CommandResult)
	m.errors = make(map[string]error)
	m.fallback = nil
	m.calls = make([]ports.CommandCall, 0)
}

// Ensure Shell implements ports.Shell.
var _ ports.Shell = (*Shell)(nil)
