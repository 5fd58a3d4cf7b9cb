package app

import (
	"context"

	"github.com/felixgeelhaar/okd4prov/internal/adapters/command"
	"github.com/felixgeelhaar/okd4prov/internal/adapters/ssh"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// Connect opens an ssh session, or a local shell for transport: local.
func Connect(ctx context.Context, h config.HostConfig) (ports.Shell, error) {
	if h.Transport == config.TransportLocal {
		var opts []command.LocalShellOption
		if h.Workdir != "" {
			opts = append(opts, command.WithWorkdir(h.Workdir))
		}
		sh, err := command.NewLocalShell(opts...)
		if err != nil {
			return nil, err
		}
		return sh, nil
	}

	sh, err := ssh.Dial(ctx, ssh.Config{
		Host:            h.Hostname,
		Port:            h.Port,
		User:            h.User,
		KeyFile:         h.SSHKey,
		KnownHostsFile:  h.KnownHosts,
		InsecureHostKey: h.InsecureHostKey,
		Timeout:         h.Timeout(),
	})
	if err != nil {
		return nil, err
	}
	return sh, nil
}
