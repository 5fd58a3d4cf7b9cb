// Package hostcmd builds shell command lines for the target host.
package hostcmd

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// sudoPrefix runs privileged commands without prompting; a password prompt
// over a non-interactive session would hang the run.
var sudoPrefix = []string{"sudo", "-n"}

// Line quotes each argument and joins them into one command line.
func Line(args ...string) string {
	return shellescape.QuoteCommand(args)
}

// Privileged is Line prefixed with sudo when sudo is true.
func Privileged(sudo bool, args ...string) string {
	if !sudo {
		return Line(args...)
	}
	full := make([]string, 0, len(sudoPrefix)+len(args))
	full = append(full, sudoPrefix...)
	full = append(full, args...)
	return Line(full...)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

// Error returns the command, exit code and trimmed stderr.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Require turns a non-zero exit into an *ExitError.
// Transport errors are wrapped with the command line.
func Require(command string, result ports.CommandResult, err error) (ports.CommandResult, error) {
	if err != nil {
		return result, fmt.Errorf("run %q: %w", command, err)
	}
	if !result.Success() {
		return result, &ExitError{Command: command, ExitCode: result.ExitCode, Stderr: result.Stderr}
	}
	return result, nil
}
