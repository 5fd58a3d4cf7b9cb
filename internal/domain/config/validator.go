package config

import (
	"encoding/json"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/felixgeelhaar/okd4prov/internal/validation"
)

// ValidationError represents a validation failure.
type ValidationError struct {
	Field      string
	Message    string
	Suggestion string
}

// Error returns a formatted error message.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Architectures CoreOS publishes PXE artifacts for.
var Architectures = []string{"x86_64", "aarch64", "ppc64le", "s390x"}

// Validator validates an inventory after defaults are applied.
type Validator struct {
	errs []ValidationError
}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns every problem found in inv.
func (v *Validator) Validate(inv *Inventory) []ValidationError {
	v.errs = nil

	v.validateHost(inv.Host)
	v.validateCluster(inv.Cluster)
	v.validateRelease(inv.Release)
	v.validatePXE(inv.PXE, slices.Contains(inv.Steps, "pxelinux"))
	v.validateNodes(inv.Nodes)
	v.validatePackages(inv.Packages)
	v.validateSteps(inv.Steps)

	return v.errs
}

func (v *Validator) add(field, message, suggestion string) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: message, Suggestion: suggestion})
}

func (v *Validator) check(field string, err error, suggestion string) {
	if err != nil {
		v.add(field, err.Error(), suggestion)
	}
}

func (v *Validator) validateHost(h HostConfig) {
	switch h.Transport {
	case TransportSSH:
		if h.Hostname == "" {
			v.add("host.hostname", "hostname is required for the ssh transport", "Set host.hostname or OKD4PROV_HOST, or use transport: local.")
		} else {
			v.check("host.hostname", validation.ValidateHostname(h.Hostname), "")
		}
		if h.Port < 1 || h.Port > 65535 {
			v.add("host.port", fmt.Sprintf("port %d out of range", h.Port), "Use a TCP port between 1 and 65535.")
		}
		v.check("host.ssh_key", validation.ValidateSSHParameter(h.SSHKey), "")
		v.check("host.known_hosts", validation.ValidateSSHParameter(h.KnownHosts), "")
		v.check("host.user", validation.ValidateSSHParameter(h.User), "")
	case TransportLocal:
	default:
		v.add("host.transport", fmt.Sprintf("unknown transport %q", h.Transport), "Use ssh or local.")
	}

	if d, err := time.ParseDuration(h.ConnectTimeout); err != nil || d <= 0 {
		v.add("host.connect_timeout", fmt.Sprintf("invalid duration %q", h.ConnectTimeout), "Use a Go duration such as 30s or 2m.")
	}

	if h.Workdir != "" {
		v.check("host.workdir", validation.ValidatePath(h.Workdir), "")
	}
}

func (v *Validator) validateCluster(c ClusterConfig) {
	v.check("cluster.name", validation.ValidateDNSLabel(c.Name), "The cluster name becomes the first label of every cluster hostname, e.g. okd4.")
	v.check("cluster.domain", validation.ValidateHostname(c.Domain), "Set the base domain, e.g. example.com.")

	if c.PullSecret != "" && !json.Valid([]byte(c.PullSecret)) {
		v.add("cluster.pull_secret", "pull secret is not valid JSON", `OKD accepts the placeholder {"auths":{"fake":{"auth":"aWQ6cGFzcwo="}}}.`)
	}
	if strings.ContainsAny(c.SSHPublicKey, "\n\r") {
		v.add("cluster.ssh_public_key", "public key must be a single line", "")
	}

	if c.ControlPlaneReplicas < 1 {
		v.add("cluster.control_plane_replicas", "at least one control plane replica is required", "")
	}
	if c.ComputeReplicas < 0 {
		v.add("cluster.compute_replicas", "compute replicas cannot be negative", "")
	}
	if c.HostPrefix < 1 || c.HostPrefix > 32 {
		v.add("cluster.host_prefix", fmt.Sprintf("host prefix %d out of range", c.HostPrefix), "")
	}

	v.checkCIDR("cluster.cluster_network", c.ClusterNetwork)
	v.checkCIDR("cluster.service_network", c.ServiceNetwork)
	if c.MachineNetwork != "" {
		v.checkCIDR("cluster.machine_network", c.MachineNetwork)
	}
}

func (v *Validator) checkCIDR(field, cidr string) {
	if _, _, err := net.ParseCIDR(cidr); err != nil {
		v.add(field, fmt.Sprintf("invalid CIDR %q", cidr), "Use address/prefix notation, e.g. 10.128.0.0/14.")
	}
}

func (v *Validator) validateRelease(r ReleaseConfig) {
	if r.Tag != "" {
		v.check("release.tag", validation.ValidateReleaseTag(r.Tag), "Pin a tag exactly as published, e.g. 4.15.0-0.okd-2024-03-10-010116.")
	}
	v.check("release.latest_url", validation.ValidateURL(r.LatestURL), "")
	v.check("release.download_base", validation.ValidateURL(strings.TrimSuffix(r.DownloadBase, "/")), "")
}

// validatePXE checks the boot settings. The boot menu needs a URL that nodes
// can reach; with the local transport there is no hostname to derive it from.
func (v *Validator) validatePXE(p PXEConfig, bootMenu bool) {
	if !slices.Contains(Architectures, p.Architecture) {
		v.add("pxe.architecture", fmt.Sprintf("unknown architecture %q", p.Architecture), "Use one of: "+strings.Join(Architectures, ", "))
	}
	switch {
	case p.HTTPBase != "":
		v.check("pxe.http_base", validation.ValidateURL(strings.TrimSuffix(p.HTTPBase, "/")), "")
	case bootMenu:
		v.add("pxe.http_base", "http_base is required to render the pxelinux boot menu",
			"Set pxe.http_base or OKD4PROV_HTTP_BASE to the URL nodes fetch images from, e.g. http://192.168.1.10:8080, or set host.hostname.")
	}
	v.check("pxe.rootfs_check_dir", validation.ValidateAbsolutePath(p.RootfsCheckDir), "")
	v.check("pxe.install_disk", validation.ValidateAbsolutePath(p.InstallDisk), "")
}

func (v *Validator) validateNodes(nodes []Node) {
	names := make(map[string]bool, len(nodes))
	bootstraps := 0

	for i, n := range nodes {
		field := fmt.Sprintf("nodes[%d]", i)

		v.check(field+".name", validation.ValidateDNSLabel(n.Name), "")
		if names[n.Name] {
			v.add(field+".name", fmt.Sprintf("duplicate node name %q", n.Name), "")
		}
		names[n.Name] = true

		switch n.Role {
		case RoleBootstrap:
			bootstraps++
		case RoleMaster, RoleWorker:
		default:
			v.add(field+".role", fmt.Sprintf("unknown role %q", n.Role), "Use bootstrap, master or worker.")
		}

		if net.ParseIP(n.IP) == nil {
			v.add(field+".ip", fmt.Sprintf("invalid IP address %q", n.IP), "")
		}
		if n.MAC != "" {
			if _, err := net.ParseMAC(n.MAC); err != nil {
				v.add(field+".mac", fmt.Sprintf("invalid MAC address %q", n.MAC), "")
			}
		}
	}

	if bootstraps > 1 {
		v.add("nodes", fmt.Sprintf("%d bootstrap nodes configured", bootstraps), "An OKD install uses exactly one bootstrap node.")
	}
}

func (v *Validator) validatePackages(pkgs []string) {
	for i, p := range pkgs {
		v.check(fmt.Sprintf("packages[%d]", i), validation.ValidatePackageName(p), "")
	}
}

func (v *Validator) validateSteps(steps []string) {
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		field := fmt.Sprintf("steps[%d]", i)
		if !slices.Contains(DefaultSteps, s) {
			ue := NewUnknownStepError(s, DefaultSteps)
			v.add(field, ue.Message, ue.Suggestion)
			continue
		}
		if seen[s] {
			v.add(field, fmt.Sprintf("step '%s' listed twice", s), "Each step runs at most once per run.")
		}
		seen[s] = true
	}
}
