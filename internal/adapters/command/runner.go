// Package command runs host commands on the machine okd4prov itself runs on.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// LocalShell implements ports.Shell with sh -c on the local machine.
type LocalShell struct {
	shell   string
	workdir string
	env     []string
}

// LocalShellOption configures a LocalShell.
type LocalShellOption func(*LocalShell)

// WithWorkdir sets the directory commands run in. Relative host paths
// such as bin and Downloads resolve against it.
func WithWorkdir(dir string) LocalShellOption {
	return func(s *LocalShell) {
		s.workdir = dir
	}
}

// WithShell replaces /bin/sh.
func WithShell(path string) LocalShellOption {
	return func(s *LocalShell) {
		s.shell = path
	}
}

// NewLocalShell creates a LocalShell. The working directory defaults to
// the user's home directory, matching where an ssh session starts.
func NewLocalShell(opts ...LocalShellOption) (*LocalShell, error) {
	s := &LocalShell{shell: "/bin/sh", env: os.Environ()}
	for _, opt := range opts {
		opt(s)
	}
	if s.workdir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		s.workdir = home
	}
	return s, nil
}

// Workdir returns the directory commands run in.
func (s *LocalShell) Workdir() string {
	return s.workdir
}

// Run executes a command line.
func (s *LocalShell) Run(ctx context.Context, command string) (ports.CommandResult, error) {
	return s.RunWithInput(ctx, command, nil)
}

// RunWithInput executes a command line with stdin attached. A non-zero
// exit is reported in the result.
func (s *LocalShell) RunWithInput(ctx context.Context, command string, stdin io.Reader) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, s.shell, "-c", command)
	cmd.Dir = s.workdir
	cmd.Env = s.env
	cmd.Stdin = stdin

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ports.CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("start %s: %w", s.shell, err)
	}
	return result, nil
}

// Close does nothing; there is no connection to release.
func (s *LocalShell) Close() error {
	return nil
}

var _ ports.Shell = (*LocalShell)(nil)
