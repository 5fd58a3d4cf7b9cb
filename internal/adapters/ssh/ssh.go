// Package ssh implements ports.Shell over an SSH connection to the staging
// host. Every command runs in its own session of one shared connection.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultIdentityFiles are tried, relative to the home directory, when no
// key is configured.
var DefaultIdentityFiles = []string{".ssh/id_ed25519", ".ssh/id_ecdsa", ".ssh/id_rsa"}

// Config describes the connection.
type Config struct {
	Host            string
	Port            int
	User            string
	KeyFile         string
	KnownHostsFile  string
	InsecureHostKey bool
	Timeout         time.Duration

	// Signers and HostKeyCallback replace key discovery and known_hosts
	// verification when set.
	Signers         []ssh.Signer
	HostKeyCallback ssh.HostKeyCallback
}

// Shell runs commands on the remote host.
type Shell struct {
	client *ssh.Client
	agent  net.Conn
}

// Dial connects and authenticates.
func Dial(ctx context.Context, cfg Config) (*Shell, error) {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	hostKey, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}
	auth, agentConn, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}
	closeAgent := func() {
		if agentConn != nil {
			_ = agentConn.Close()
		}
	}

	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         cfg.Timeout,
	}

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		closeAgent()
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		_ = conn.Close()
		closeAgent()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	return &Shell{client: ssh.NewClient(sshConn, chans, reqs), agent: agentConn}, nil
}

func hostKeyCallback(cfg Config) (ssh.HostKeyCallback, error) {
	switch {
	case cfg.HostKeyCallback != nil:
		return cfg.HostKeyCallback, nil
	case cfg.InsecureHostKey:
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // opted into by host.insecure_host_key
	}

	file := cfg.KnownHostsFile
	if file == "" {
		file = "~/.ssh/known_hosts"
	}
	path, err := expandHome(file)
	if err != nil {
		return nil, err
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known hosts %s: %w", path, err)
	}
	return cb, nil
}

// authMethods collects the configured key, the ssh agent and the default
// identity files, in that order.
func authMethods(cfg Config) ([]ssh.AuthMethod, net.Conn, error) {
	if len(cfg.Signers) > 0 {
		return []ssh.AuthMethod{ssh.PublicKeys(cfg.Signers...)}, nil, nil
	}

	var methods []ssh.AuthMethod
	if cfg.KeyFile != "" {
		signer, err := loadKey(cfg.KeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load ssh key %s: %w", cfg.KeyFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	var agentConn net.Conn
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			agentConn = conn
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if cfg.KeyFile == "" {
		for _, name := range DefaultIdentityFiles {
			if signer, err := loadKey("~/" + name); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}

	if len(methods) == 0 {
		return nil, nil, errors.New("no ssh authentication method: set host.ssh_key or start an ssh agent")
	}
	return methods, agentConn, nil
}

func loadKey(file string) (ssh.Signer, error) {
	path, err := expandHome(file)
	if err != nil {
		return nil, err
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(key)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

// Run executes a command line.
func (s *Shell) Run(ctx context.Context, command string) (ports.CommandResult, error) {
	return s.RunWithInput(ctx, command, nil)
}

// RunWithInput executes a command line with stdin attached. Cancelling ctx
// signals the remote process and returns ctx.Err().
func (s *Shell) RunWithInput(ctx context.Context, command string, stdin io.Reader) (ports.CommandResult, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return ports.CommandResult{}, fmt.Errorf("open ssh session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = stdin
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		return ports.CommandResult{}, ctx.Err()
	case err := <-done:
		result := ports.CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
		if err != nil {
			var exitErr *ssh.ExitError
			if !errors.As(err, &exitErr) {
				return result, fmt.Errorf("run %q: %w", command, err)
			}
			result.ExitCode = exitErr.ExitStatus()
		}
		return result, nil
	}
}

// Close closes the connection and the agent socket.
func (s *Shell) Close() error {
	err := s.client.Close()
	if s.agent != nil {
		_ = s.agent.Close()
	}
	return err
}

var _ ports.Shell = (*Shell)(nil)
