package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type testServer struct {
	host    string
	port    int
	hostKey ssh.PublicKey
}

func newSigner(t *testing.T) (ssh.Signer, ed25519.PrivateKey) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	return signer, priv
}

// startServer runs an ssh server that accepts only client and answers a
// handful of fake commands.
func startServer(t *testing.T, client ssh.PublicKey) testServer {
	t.Helper()

	hostSigner, _ := newSigner(t)
	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if string(key.Marshal()) == string(client.Marshal()) {
				return nil, nil
			}
			return nil, assert.AnError
		},
	}
	cfg.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, cfg)
		}
	}()

	tcp := ln.Addr().(*net.TCPAddr)
	return testServer{host: "127.0.0.1", port: tcp.Port, hostKey: hostSigner.PublicKey()}
}

func serveConn(nc net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(nc, cfg)
	if err != nil {
		_ = nc.Close()
		return
	}
	go ssh.DiscardRequests(reqs)
	for nch := range chans {
		if nch.ChannelType() != "session" {
			_ = nch.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, requests, err := nch.Accept()
		if err != nil {
			continue
		}
		go serveSession(ch, requests)
	}
}

func serveSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer func() { _ = ch.Close() }()
	for req := range requests {
		if req.Type != "exec" {
			_ = req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		code := fakeCommand(ch, payload.Command)
		_ = ch.CloseWrite()
		_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(code)}))
		return
	}
}

func fakeCommand(ch ssh.Channel, command string) int {
	switch {
	case command == "id -un":
		_, _ = io.WriteString(ch, "okd\n")
		return 0
	case command == "cat":
		_, _ = io.Copy(ch, ch)
		return 0
	case command == "sleep":
		time.Sleep(2 * time.Second)
		return 0
	case strings.HasPrefix(command, "exit "):
		code, _ := strconv.Atoi(strings.TrimPrefix(command, "exit "))
		_, _ = io.WriteString(ch.Stderr(), "failed\n")
		return code
	}
	_, _ = io.WriteString(ch.Stderr(), "sh: "+command+": command not found\n")
	return 127
}

func dialInsecure(t *testing.T) *Shell {
	t.Helper()
	signer, _ := newSigner(t)
	srv := startServer(t, signer.PublicKey())

	sh, err := Dial(context.Background(), Config{
		Host:            srv.host,
		Port:            srv.port,
		User:            "okd",
		InsecureHostKey: true,
		Timeout:         5 * time.Second,
		Signers:         []ssh.Signer{signer},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sh.Close() })
	return sh
}

func TestShell_Run(t *testing.T) {
	t.Parallel()

	sh := dialInsecure(t)
	res, err := sh.Run(context.Background(), "id -un")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "okd", res.Output())

	res, err = sh.Run(context.Background(), "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "failed\n", res.Stderr)

	res, err = sh.Run(context.Background(), "firewall-cmd --list-services")
	require.NoError(t, err)
	assert.Equal(t, 127, res.ExitCode)
}

func TestShell_RunWithInput(t *testing.T) {
	t.Parallel()

	sh := dialInsecure(t)
	res, err := sh.RunWithInput(context.Background(), "cat", strings.NewReader("DEFAULT menu.c32\n"))
	require.NoError(t, err)
	assert.Equal(t, "DEFAULT menu.c32\n", res.Stdout)
}

func TestShell_Cancelled(t *testing.T) {
	t.Parallel()

	sh := dialInsecure(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := sh.Run(ctx, "sleep")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDial_KnownHosts(t *testing.T) {
	t.Parallel()

	signer, _ := newSigner(t)
	srv := startServer(t, signer.PublicKey())
	addr := net.JoinHostPort(srv.host, strconv.Itoa(srv.port))
	other, _ := newSigner(t)

	tests := []struct {
		name    string
		key     ssh.PublicKey
		wantErr bool
	}{
		{"matching key", srv.hostKey, false},
		{"changed key", other.PublicKey(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			file := filepath.Join(t.TempDir(), "known_hosts")
			line := knownhosts.Line([]string{knownhosts.Normalize(addr)}, tt.key)
			require.NoError(t, os.WriteFile(file, []byte(line+"\n"), 0o600))

			sh, err := Dial(context.Background(), Config{
				Host:           srv.host,
				Port:           srv.port,
				User:           "okd",
				KnownHostsFile: file,
				Timeout:        5 * time.Second,
				Signers:        []ssh.Signer{signer},
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "ssh handshake")
				return
			}
			require.NoError(t, err)
			require.NoError(t, sh.Close())
		})
	}
}

func TestDial_KeyFile(t *testing.T) {
	t.Parallel()

	signer, priv := newSigner(t)
	srv := startServer(t, signer.PublicKey())

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	keyFile := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(block), 0o600))

	sh, err := Dial(context.Background(), Config{
		Host:            srv.host,
		Port:            srv.port,
		User:            "okd",
		KeyFile:         keyFile,
		InsecureHostKey: true,
		Timeout:         5 * time.Second,
	})
	require.NoError(t, err)
	defer func() { _ = sh.Close() }()

	res, err := sh.Run(context.Background(), "id -un")
	require.NoError(t, err)
	assert.Equal(t, "okd", res.Output())
}

func TestDial_Errors(t *testing.T) {
	t.Parallel()

	signer, _ := newSigner(t)

	t.Run("missing key file", func(t *testing.T) {
		t.Parallel()
		_, err := Dial(context.Background(), Config{
			Host: "127.0.0.1", User: "okd", InsecureHostKey: true,
			KeyFile: filepath.Join(t.TempDir(), "absent"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load ssh key")
	})

	t.Run("missing known hosts", func(t *testing.T) {
		t.Parallel()
		_, err := Dial(context.Background(), Config{
			Host: "127.0.0.1", User: "okd", Signers: []ssh.Signer{signer},
			KnownHostsFile: filepath.Join(t.TempDir(), "known_hosts"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load known hosts")
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := ln.Addr().(*net.TCPAddr).Port
		require.NoError(t, ln.Close())

		_, err = Dial(context.Background(), Config{
			Host: "127.0.0.1", Port: port, User: "okd", InsecureHostKey: true,
			Signers: []ssh.Signer{signer}, Timeout: time.Second,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dial 127.0.0.1:")
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other, _ := newSigner(t)
		srv := startServer(t, other.PublicKey())
		_, err := Dial(context.Background(), Config{
			Host: srv.host, Port: srv.port, User: "okd", InsecureHostKey: true,
			Signers: []ssh.Signer{signer}, Timeout: 5 * time.Second,
		})
		require.Error(t, err)
	})
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := expandHome("~/.ssh/known_hosts")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh", "known_hosts"), got)

	got, err = expandHome("/etc/ssh/ssh_known_hosts")
	require.NoError(t, err)
	assert.Equal(t, "/etc/ssh/ssh_known_hosts", got)
}
