package config

import (
	"fmt"
	"time"
)

// Transports supported for reaching the target host.
const (
	TransportSSH   = "ssh"
	TransportLocal = "local"
)

// Node roles known to the rendered haproxy and DNS configuration.
const (
	RoleBootstrap = "bootstrap"
	RoleMaster    = "master"
	RoleWorker    = "worker"
)

// Defaults applied to fields the inventory and environment leave empty.
const (
	DefaultPath           = "okd4.yaml"
	DefaultPort           = 22
	DefaultConnectTimeout = "30s"
	DefaultLatestURL      = "https://github.com/openshift/okd/releases/latest"
	DefaultDownloadBase   = "https://github.com/openshift/okd/releases/download"
	DefaultArchitecture   = "x86_64"
	DefaultRootfsCheckDir = "/user/share/nginx/html/fcos"
	DefaultRootfsDir      = "/usr/share/nginx/html/fcos"
	DefaultControlPlane   = 3
	DefaultClusterNetwork = "10.128.0.0/14"
	DefaultHostPrefix     = 23
	DefaultServiceNetwork = "172.30.0.0/16"
	DefaultNetworkType    = "OVNKubernetes"
	DefaultHTTPPort       = 8080
	DefaultInstallDisk    = "/dev/sda"
	DefaultFakePullSecret = `{"auths":{"fake":{"auth":"aWQ6cGFzcwo="}}}`
)

// DefaultPackages are installed by the packages step.
var DefaultPackages = []string{"tftp-server", "syslinux-tftpboot", "nginx", "haproxy"}

// DefaultSteps is the provisioning sequence run when the inventory does not
// name one.
var DefaultSteps = []string{
	"package-repos",
	"packages",
	"directories",
	"syslinux",
	"nginx",
	"firewall",
	"services",
	"installer",
	"pxe-images",
	"pxelinux",
	"install-config",
	"ignition",
	"publish-ignition",
	"haproxy",
	"dns-records",
}

// Inventory is the parsed okd4.yaml.
type Inventory struct {
	Host     HostConfig    `yaml:"host" toml:"host"`
	Cluster  ClusterConfig `yaml:"cluster" toml:"cluster"`
	Release  ReleaseConfig `yaml:"release" toml:"release"`
	PXE      PXEConfig     `yaml:"pxe" toml:"pxe"`
	Nodes    []Node        `yaml:"nodes,omitempty" toml:"nodes,omitempty"`
	Packages []string      `yaml:"packages,omitempty" toml:"packages,omitempty"`
	Steps    []string      `yaml:"steps,omitempty" toml:"steps,omitempty"`
}

// HostConfig describes how to reach the staging host.
type HostConfig struct {
	Transport       string `yaml:"transport" toml:"transport" env:"OKD4PROV_TRANSPORT"`
	Hostname        string `yaml:"hostname" toml:"hostname" env:"OKD4PROV_HOST"`
	Port            int    `yaml:"port" toml:"port" env:"OKD4PROV_PORT"`
	User            string `yaml:"user" toml:"user" env:"OKD4PROV_SSH_USER"`
	SSHKey          string `yaml:"ssh_key" toml:"ssh_key" env:"OKD4PROV_SSH_KEY"`
	KnownHosts      string `yaml:"known_hosts" toml:"known_hosts" env:"OKD4PROV_KNOWN_HOSTS"`
	InsecureHostKey bool   `yaml:"insecure_host_key" toml:"insecure_host_key"`
	ConnectTimeout  string `yaml:"connect_timeout" toml:"connect_timeout" env:"OKD4PROV_CONNECT_TIMEOUT"`
	Sudo            *bool  `yaml:"sudo" toml:"sudo"`
	Workdir         string `yaml:"workdir" toml:"workdir" env:"OKD4PROV_WORKDIR"`
}

// Timeout returns the parsed connect timeout.
func (h HostConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(h.ConnectTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultConnectTimeout)
	}
	return d
}

// UseSudo reports whether privileged commands are prefixed with sudo.
func (h HostConfig) UseSudo() bool {
	return h.Sudo == nil || *h.Sudo
}

// Address returns hostname:port.
func (h HostConfig) Address() string {
	return fmt.Sprintf("%s:%d", h.Hostname, h.Port)
}

// ClusterConfig holds the values rendered into install-config.yaml.
type ClusterConfig struct {
	Name                 string `yaml:"name" toml:"name" env:"OKD4PROV_CLUSTER_NAME"`
	Domain               string `yaml:"domain" toml:"domain" env:"OKD4PROV_CLUSTER_DOMAIN"`
	PullSecret           string `yaml:"pull_secret" toml:"pull_secret" env:"OKD4PROV_PULL_SECRET"`
	PullSecretFile       string `yaml:"pull_secret_file" toml:"pull_secret_file" env:"OKD4PROV_PULL_SECRET_FILE"`
	SSHPublicKey         string `yaml:"ssh_public_key" toml:"ssh_public_key" env:"OKD4PROV_SSH_PUBLIC_KEY"`
	SSHPublicKeyFile     string `yaml:"ssh_public_key_file" toml:"ssh_public_key_file" env:"OKD4PROV_SSH_PUBLIC_KEY_FILE"`
	ControlPlaneReplicas int    `yaml:"control_plane_replicas" toml:"control_plane_replicas"`
	ComputeReplicas      int    `yaml:"compute_replicas" toml:"compute_replicas"`
	ClusterNetwork       string `yaml:"cluster_network" toml:"cluster_network"`
	HostPrefix           int    `yaml:"host_prefix" toml:"host_prefix"`
	ServiceNetwork       string `yaml:"service_network" toml:"service_network"`
	MachineNetwork       string `yaml:"machine_network" toml:"machine_network"`
	NetworkType          string `yaml:"network_type" toml:"network_type"`
}

// FQDN returns name.domain.
func (c ClusterConfig) FQDN() string {
	return c.Name + "." + c.Domain
}

// ReleaseConfig selects the OKD release to download.
type ReleaseConfig struct {
	Tag          string `yaml:"tag" toml:"tag" env:"OKD4PROV_RELEASE_TAG"`
	LatestURL    string `yaml:"latest_url" toml:"latest_url" env:"OKD4PROV_LATEST_URL"`
	DownloadBase string `yaml:"download_base" toml:"download_base" env:"OKD4PROV_DOWNLOAD_BASE"`
}

// PXEConfig controls the network-boot assets.
type PXEConfig struct {
	Architecture   string `yaml:"architecture" toml:"architecture" env:"OKD4PROV_ARCH"`
	HTTPBase       string `yaml:"http_base" toml:"http_base" env:"OKD4PROV_HTTP_BASE"`
	RootfsCheckDir string `yaml:"rootfs_check_dir" toml:"rootfs_check_dir" env:"OKD4PROV_ROOTFS_CHECK_DIR"`
	InstallDisk    string `yaml:"install_disk" toml:"install_disk"`
}

// Node is one cluster machine served by the staging host.
type Node struct {
	Name string `yaml:"name" toml:"name"`
	Role string `yaml:"role" toml:"role"`
	IP   string `yaml:"ip" toml:"ip"`
	MAC  string `yaml:"mac,omitempty" toml:"mac,omitempty"`
}

// NodesByRole returns the nodes with the given role, in inventory order.
func (inv *Inventory) NodesByRole(role string) []Node {
	var out []Node
	for _, n := range inv.Nodes {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// ApplyDefaults fills empty fields with their defaults.
func (inv *Inventory) ApplyDefaults() {
	h := &inv.Host
	if h.Transport == "" {
		h.Transport = TransportSSH
	}
	if h.Port == 0 {
		h.Port = DefaultPort
	}
	if h.ConnectTimeout == "" {
		h.ConnectTimeout = DefaultConnectTimeout
	}

	c := &inv.Cluster
	if c.PullSecret == "" && c.PullSecretFile == "" {
		c.PullSecret = DefaultFakePullSecret
	}
	if c.ControlPlaneReplicas == 0 {
		c.ControlPlaneReplicas = DefaultControlPlane
	}
	if c.ClusterNetwork == "" {
		c.ClusterNetwork = DefaultClusterNetwork
	}
	if c.HostPrefix == 0 {
		c.HostPrefix = DefaultHostPrefix
	}
	if c.ServiceNetwork == "" {
		c.ServiceNetwork = DefaultServiceNetwork
	}
	if c.NetworkType == "" {
		c.NetworkType = DefaultNetworkType
	}

	r := &inv.Release
	if r.LatestURL == "" {
		r.LatestURL = DefaultLatestURL
	}
	if r.DownloadBase == "" {
		r.DownloadBase = DefaultDownloadBase
	}

	p := &inv.PXE
	if p.Architecture == "" {
		p.Architecture = DefaultArchitecture
	}
	if p.RootfsCheckDir == "" {
		p.RootfsCheckDir = DefaultRootfsCheckDir
	}
	if p.HTTPBase == "" && h.Hostname != "" {
		p.HTTPBase = fmt.Sprintf("http://%s:%d", h.Hostname, DefaultHTTPPort)
	}
	if p.InstallDisk == "" {
		p.InstallDisk = DefaultInstallDisk
	}

	if len(inv.Packages) == 0 {
		inv.Packages = append([]string(nil), DefaultPackages...)
	}
	if len(inv.Steps) == 0 {
		inv.Steps = append([]string(nil), DefaultSteps...)
	}
}

// Default returns an inventory with only defaults set.
func Default() *Inventory {
	inv := &Inventory{}
	inv.ApplyDefaults()
	return inv
}
