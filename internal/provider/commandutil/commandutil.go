// Package commandutil holds the host actions shared by providers: running
// a checked command and writing a rendered file.
package commandutil

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/hostcmd"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// exitNotFound is the status POSIX shells exit with for an unknown command.
const exitNotFound = 127

// IsCommandNotFound reports whether an error indicates a missing executable,
// either locally or in the host's shell.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	var hostErr *hostcmd.ExitError
	if errors.As(err, &hostErr) {
		return hostErr.ExitCode == exitNotFound
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// Run executes args on the host, prefixed with sudo when privileged and the
// run allows it. A non-zero exit is returned as *hostcmd.ExitError.
func Run(ctx compiler.RunContext, privileged bool, args ...string) (ports.CommandResult, error) {
	cmd := hostcmd.Privileged(privileged && ctx.Sudo(), args...)
	ctx.Debug("run", ports.F("command", cmd))
	res, err := ctx.Shell().Run(ctx.Context(), cmd)
	return hostcmd.Require(cmd, res, err)
}

// File is a file written to the host.
type File struct {
	Path       string
	Content    []byte
	Mode       string
	Owner      string
	Privileged bool
}

// Upload streams f.Content to f.Path, then sets its mode and, when Owner is
// set, its owner.
func Upload(ctx compiler.RunContext, f File) error {
	sudo := f.Privileged && ctx.Sudo()
	cmd := hostcmd.Privileged(sudo, "tee", f.Path) + " >/dev/null"
	ctx.Debug("upload", ports.F("path", f.Path), ports.F("bytes", len(f.Content)))

	res, err := ctx.Shell().RunWithInput(ctx.Context(), cmd, bytes.NewReader(f.Content))
	if _, err := hostcmd.Require(cmd, res, err); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}

	if f.Mode != "" {
		if _, err := Run(ctx, f.Privileged, "chmod", f.Mode, f.Path); err != nil {
			return err
		}
	}
	if f.Owner != "" {
		if _, err := Run(ctx, f.Privileged, "chown", f.Owner, f.Path); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches url into dest with curl, following redirects.
func Download(ctx compiler.RunContext, privileged bool, url, dest string) error {
	_, err := Run(ctx, privileged, "curl", "--fail", "--silent", "--show-error", "--location", "--output", dest, url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}
