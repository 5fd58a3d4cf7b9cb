//go:build integration

package integration

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// fakeHost is a Fedora host that remembers what the provisioner did to it.
// It understands exactly the commands the providers issue; anything else
// exits 127.
type fakeHost struct {
	mu        sync.Mutex
	stream    string
	files     map[string]string
	dirs      map[string]bool
	modes     map[string]string
	packages  map[string]bool
	active    map[string]bool
	enabled   map[string]bool
	firewall  []string
	downloads map[string]int
}

var _ ports.Shell = (*fakeHost)(nil)

func newFakeHost(stream string) *fakeHost {
	return &fakeHost{
		stream:    stream,
		files:     map[string]string{},
		dirs:      map[string]bool{},
		modes:     map[string]string{},
		packages:  map[string]bool{},
		active:    map[string]bool{},
		enabled:   map[string]bool{},
		firewall:  []string{"dhcpv6-client", "ssh"},
		downloads: map[string]int{},
	}
}

// Downloads returns how often curl wrote dest.
func (h *fakeHost) Downloads(dest string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.downloads[dest]
}

// HasFile reports whether p was written.
func (h *fakeHost) HasFile(p string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.files[p]
	return ok
}

func (h *fakeHost) Run(ctx context.Context, command string) (ports.CommandResult, error) {
	return h.RunWithInput(ctx, command, nil)
}

func (h *fakeHost) RunWithInput(_ context.Context, command string, stdin io.Reader) (ports.CommandResult, error) {
	var input string
	if stdin != nil {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return ports.CommandResult{}, err
		}
		input = string(b)
	}

	args := splitCommand(command)
	if len(args) > 2 && args[0] == "sudo" && args[1] == "-n" {
		args = args[2:]
	}
	if n := len(args); n > 0 && args[n-1] == ">/dev/null" {
		args = args[:n-1]
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dispatch(args, input), nil
}

func (h *fakeHost) Close() error {
	return nil
}

func (h *fakeHost) dispatch(args []string, stdin string) ports.CommandResult {
	if len(args) == 0 {
		return exit(127, "")
	}
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch args[0] {
	case "cat":
		if arg(1) == "/etc/os-release" {
			return ok("NAME=\"Fedora Linux\"\nID=fedora\nVERSION_ID=39\n")
		}
	case "id":
		return ok("okd\n")
	case "test":
		if arg(1) == "-d" {
			return truth(h.dirs[arg(2)])
		}
		_, found := h.files[arg(2)]
		return truth(found)
	case "md5sum":
		content, found := h.files[arg(1)]
		if !found {
			return exit(1, "md5sum: "+arg(1)+": No such file or directory")
		}
		sum := md5.Sum([]byte(content))
		return ok(hex.EncodeToString(sum[:]) + "  " + arg(1) + "\n")
	case "stat":
		mode, found := h.modes[arg(3)]
		if !found {
			return exit(1, "")
		}
		return ok(mode + "\n")
	case "grep":
		return truth(strings.Contains(h.files[arg(5)], arg(4)))
	case "rpm":
		if h.packages[arg(2)] {
			return ok(arg(2) + "-1.0-1.fc39.x86_64\n")
		}
		return exit(1, "package "+arg(2)+" is not installed")
	case "dnf":
		h.install(arg(3))
		return ok("Complete!\n")
	case "mkdir":
		h.dirs[arg(2)] = true
		return ok("")
	case "chmod":
		h.modes[arg(2)] = strings.TrimPrefix(arg(1), "0")
		return ok("")
	case "chown":
		return ok("")
	case "tee":
		h.files[arg(1)] = stdin
		return ok("")
	case "cp":
		content, found := h.files[arg(1)]
		if !found {
			return exit(1, "cp: cannot stat '"+arg(1)+"': No such file or directory")
		}
		h.files[arg(2)] = content
		return ok("")
	case "curl":
		dest, url := args[len(args)-2], args[len(args)-1]
		h.files[dest] = "payload of " + url
		h.downloads[dest]++
		return ok("")
	case "tar":
		return h.extract(arg(2), arg(4))
	case "systemctl":
		return h.systemctl(arg(1), args[len(args)-1])
	case "firewall-cmd":
		if arg(1) == "--list-services" {
			return ok(strings.Join(h.firewall, " ") + "\n")
		}
		if svc, found := strings.CutPrefix(arg(1), "--add-service="); found {
			if !slices.Contains(h.firewall, svc) {
				h.firewall = append(h.firewall, svc)
			}
			return ok("success\n")
		}
	case "bin/openshift-install":
		if _, found := h.files["bin/openshift-install"]; found {
			return h.installer(args[1:])
		}
	}
	return exit(127, "bash: "+args[0]+": command not found")
}

func (h *fakeHost) install(name string) {
	h.packages[name] = true
	if name == "syslinux-tftpboot" {
		for _, f := range []string{"ldlinux.c32", "libcom32.c32", "libutil.c32", "menu.c32", "pxelinux.0"} {
			h.files[path.Join("/tftpboot", f)] = "syslinux " + f
		}
	}
}

func (h *fakeHost) extract(archive, dir string) ports.CommandResult {
	if _, found := h.files[archive]; !found {
		return exit(2, "tar: "+archive+": Cannot open: No such file or directory")
	}
	base := path.Base(archive)
	switch {
	case strings.HasPrefix(base, "openshift-install-"):
		h.files[path.Join(dir, "openshift-install")] = "binary"
	case strings.HasPrefix(base, "openshift-client-"):
		h.files[path.Join(dir, "oc")] = "binary"
		h.files[path.Join(dir, "kubectl")] = "binary"
	}
	return ok("")
}

func (h *fakeHost) systemctl(verb, unit string) ports.CommandResult {
	switch verb {
	case "is-active":
		if h.active[unit] {
			return ok("active\n")
		}
		return exit(3, "inactive")
	case "is-enabled":
		if h.enabled[unit] {
			return ok("enabled\n")
		}
		return exit(1, "disabled")
	case "enable":
		h.active[unit] = true
		h.enabled[unit] = true
		return ok("")
	}
	return exit(1, "Unknown command verb "+verb)
}

// installer creates assets the way openshift-install does: generating
// manifests consumes install-config.yaml.
func (h *fakeHost) installer(args []string) ports.CommandResult {
	if len(args) == 2 && args[0] == "coreos" && args[1] == "print-stream-json" {
		return ok(h.stream)
	}
	if len(args) != 4 || args[0] != "create" || args[2] != "--dir" {
		return exit(1, "unknown installer command")
	}
	dir := args[3]
	switch args[1] {
	case "manifests":
		cfg := path.Join(dir, "install-config.yaml")
		if _, found := h.files[cfg]; !found {
			return exit(1, "install-config.yaml not found")
		}
		delete(h.files, cfg)
		h.files[path.Join(dir, "manifests", "cluster-config.yaml")] = "manifest"
	case "ignition-configs":
		for _, name := range []string{"bootstrap.ign", "master.ign", "worker.ign"} {
			h.files[path.Join(dir, name)] = "{\"ignition\":{\"version\":\"3.2.0\"},\"name\":\"" + name + "\"}"
		}
	default:
		return exit(1, "unknown asset "+args[1])
	}
	return ok("")
}

// splitCommand splits a shell-quoted command line into words.
func splitCommand(line string) []string {
	var (
		words []string
		cur   strings.Builder
		quote rune
		inTok bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inTok = true
		case r == ' ':
			if inTok {
				words = append(words, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteRune(r)
			inTok = true
		}
	}
	if inTok {
		words = append(words, cur.String())
	}
	return words
}

func ok(stdout string) ports.CommandResult {
	return ports.CommandResult{Stdout: stdout}
}

func exit(code int, stderr string) ports.CommandResult {
	return ports.CommandResult{ExitCode: code, Stderr: stderr}
}

func truth(b bool) ports.CommandResult {
	if b {
		return ok("")
	}
	return exit(1, "")
}
