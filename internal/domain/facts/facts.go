// Package facts reads point-in-time state from the target host.
// Facts are never cached: every query runs a fresh command, so a step's
// check always observes the effects of the steps before it.
package facts

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/domain/hostcmd"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// Gatherer queries facts through a Shell.
type Gatherer struct {
	shell ports.Shell
	sudo  bool
}

// NewGatherer creates a Gatherer. sudo controls whether privileged queries
// such as the firewall service list are prefixed with sudo.
func NewGatherer(shell ports.Shell, sudo bool) *Gatherer {
	return &Gatherer{shell: shell, sudo: sudo}
}

// DirectoryExists reports whether path is a directory.
func (g *Gatherer) DirectoryExists(ctx context.Context, path string) (bool, error) {
	return g.test(ctx, "-d", path)
}

// FileExists reports whether path is a regular file.
func (g *Gatherer) FileExists(ctx context.Context, path string) (bool, error) {
	return g.test(ctx, "-f", path)
}

// test runs test(1); exit 0 is true, exit 1 is false, anything else is an error.
func (g *Gatherer) test(ctx context.Context, flag, path string) (bool, error) {
	cmd := hostcmd.Line("test", flag, path)
	res, err := g.shell.Run(ctx, cmd)
	if err != nil {
		return false, fmt.Errorf("run %q: %w", cmd, err)
	}
	switch res.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	}
	return false, &hostcmd.ExitError{Command: cmd, ExitCode: res.ExitCode, Stderr: res.Stderr}
}

// FileMD5 returns the hex md5 digest of path, or "" when it cannot be read.
func (g *Gatherer) FileMD5(ctx context.Context, path string) (string, error) {
	cmd := hostcmd.Line("md5sum", path)
	res, err := g.shell.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("run %q: %w", cmd, err)
	}
	if !res.Success() {
		return "", nil
	}
	sum, _, _ := strings.Cut(res.Output(), " ")
	return sum, nil
}

// FileMode returns the octal permission bits of path (for example "700"),
// or "" when it does not exist.
func (g *Gatherer) FileMode(ctx context.Context, path string) (string, error) {
	cmd := hostcmd.Line("stat", "-c", "%a", path)
	res, err := g.shell.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("run %q: %w", cmd, err)
	}
	if !res.Success() {
		return "", nil
	}
	return res.Output(), nil
}

// FindInFile reports whether path contains needle as a fixed string.
// A missing file does not contain anything.
func (g *Gatherer) FindInFile(ctx context.Context, path, needle string) (bool, error) {
	cmd := hostcmd.Line("grep", "-q", "-F", "-e", needle, path)
	res, err := g.shell.Run(ctx, cmd)
	if err != nil {
		return false, fmt.Errorf("run %q: %w", cmd, err)
	}
	return res.Success(), nil
}

// Command runs a command and returns its trimmed stdout.
// A non-zero exit is an error.
func (g *Gatherer) Command(ctx context.Context, privileged bool, args ...string) (string, error) {
	cmd := hostcmd.Privileged(privileged && g.sudo, args...)
	res, err := g.shell.Run(ctx, cmd)
	res, err = hostcmd.Require(cmd, res, err)
	if err != nil {
		return "", err
	}
	return res.Output(), nil
}

// PackageInstalled reports whether the rpm package is installed.
func (g *Gatherer) PackageInstalled(ctx context.Context, name string) (bool, error) {
	cmd := hostcmd.Line("rpm", "-q", name)
	res, err := g.shell.Run(ctx, cmd)
	if err != nil {
		return false, fmt.Errorf("run %q: %w", cmd, err)
	}
	return res.Success(), nil
}

// ServiceState is the systemd state of one unit.
type ServiceState struct {
	Active  bool
	Enabled bool
}

// String returns e.g. "inactive, enabled".
func (s ServiceState) String() string {
	active, enabled := "inactive", "disabled"
	if s.Active {
		active = "active"
	}
	if s.Enabled {
		enabled = "enabled"
	}
	return active + ", " + enabled
}

// Service returns whether unit is active and enabled.
func (g *Gatherer) Service(ctx context.Context, unit string) (ServiceState, error) {
	active, err := g.systemctlIs(ctx, "is-active", unit)
	if err != nil {
		return ServiceState{}, err
	}
	enabled, err := g.systemctlIs(ctx, "is-enabled", unit)
	if err != nil {
		return ServiceState{}, err
	}
	return ServiceState{Active: active == "active", Enabled: enabled == "enabled"}, nil
}

// systemctlIs returns the state word printed by systemctl. Inactive units
// exit non-zero, which is not an error here.
func (g *Gatherer) systemctlIs(ctx context.Context, verb, unit string) (string, error) {
	cmd := hostcmd.Line("systemctl", verb, unit)
	res, err := g.shell.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("run %q: %w", cmd, err)
	}
	return res.Output(), nil
}

// FirewallServices returns the services firewalld currently allows.
func (g *Gatherer) FirewallServices(ctx context.Context) ([]string, error) {
	out, err := g.Command(ctx, true, "firewall-cmd", "--list-services")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// OSRelease reads and parses /etc/os-release.
func (g *Gatherer) OSRelease(ctx context.Context) (host.OSRelease, error) {
	out, err := g.Command(ctx, false, "cat", host.OSReleasePath)
	if err != nil {
		return host.OSRelease{}, err
	}
	return host.ParseOSRelease([]byte(out))
}

// User returns the login name the shell runs as.
func (g *Gatherer) User(ctx context.Context) (string, error) {
	return g.Command(ctx, false, "id", "-un")
}

// CoreOSStream runs the installer's print-stream-json and extracts the PXE
// artifacts for arch.
func (g *Gatherer) CoreOSStream(ctx context.Context, installer, arch string) (release.PXEArtifacts, error) {
	out, err := g.Command(ctx, false, installer, "coreos", "print-stream-json")
	if err != nil {
		return release.PXEArtifacts{}, err
	}
	return release.ParseStream([]byte(out), arch)
}
