package app

import (
	"context"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// Session is one connected run against the staging host.
type Session struct {
	RunID     string
	Inventory *config.Inventory
	Host      host.Descriptor
	Release   release.Release
	Sequence  *compiler.Sequence

	shell  ports.Shell
	sudo   bool
	logger ports.Logger
}

// Logger returns the run logger, which carries the run ID.
func (s *Session) Logger() ports.Logger {
	return s.logger
}

// Close closes the connection to the host.
func (s *Session) Close() error {
	return s.shell.Close()
}

func (s *Session) runContext(ctx context.Context) compiler.RunContext {
	return compiler.NewRunContext(ctx).
		WithHost(s.Host).
		WithShell(s.shell, s.sudo).
		WithLogger(s.logger)
}
