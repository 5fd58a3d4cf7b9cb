package testutil

import (
	"context"

	"github.com/felixgeelhaar/okd4prov/internal/adapters/logging"
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"gopkg.in/yaml.v3"
)

// Cluster values used by the builders.
const (
	ClusterName   = "okd4"
	ClusterDomain = "example.com"
	SSHUser       = "okd"
	HostIP        = "192.168.1.10"
	ReleaseTag    = "4.15.0-0.okd-2024-03-10-010116"
)

// InventoryBuilder builds test inventories.
type InventoryBuilder struct {
	inv config.Inventory
}

// NewInventoryBuilder creates a builder for an ssh inventory of the
// okd4.example.com cluster with no nodes.
func NewInventoryBuilder() *InventoryBuilder {
	return &InventoryBuilder{
		inv: config.Inventory{
			Host: config.HostConfig{
				Transport: config.TransportSSH,
				Hostname:  HostIP,
				User:      SSHUser,
			},
			Cluster: config.ClusterConfig{
				Name:   ClusterName,
				Domain: ClusterDomain,
			},
		},
	}
}

// WithNode adds a node.
func (b *InventoryBuilder) WithNode(name, role, ip string) *InventoryBuilder {
	b.inv.Nodes = append(b.inv.Nodes, config.Node{Name: name, Role: role, IP: ip})
	return b
}

// WithStandardNodes adds a bootstrap, three masters and two workers.
func (b *InventoryBuilder) WithStandardNodes() *InventoryBuilder {
	return b.
		WithNode("bootstrap", config.RoleBootstrap, "192.168.1.20").
		WithNode("master0", config.RoleMaster, "192.168.1.21").
		WithNode("master1", config.RoleMaster, "192.168.1.22").
		WithNode("master2", config.RoleMaster, "192.168.1.23").
		WithNode("worker0", config.RoleWorker, "192.168.1.30").
		WithNode("worker1", config.RoleWorker, "192.168.1.31")
}

// WithPackages replaces the package list.
func (b *InventoryBuilder) WithPackages(pkgs ...string) *InventoryBuilder {
	b.inv.Packages = pkgs
	return b
}

// WithSteps replaces the step sequence.
func (b *InventoryBuilder) WithSteps(steps ...string) *InventoryBuilder {
	b.inv.Steps = steps
	return b
}

// WithReleaseTag pins the release.
func (b *InventoryBuilder) WithReleaseTag(tag string) *InventoryBuilder {
	b.inv.Release.Tag = tag
	return b
}

// WithRootfsCheckDir overrides where the rootfs image is looked for.
func (b *InventoryBuilder) WithRootfsCheckDir(dir string) *InventoryBuilder {
	b.inv.PXE.RootfsCheckDir = dir
	return b
}

// WithSSHPublicKey sets the key rendered into install-config.yaml.
func (b *InventoryBuilder) WithSSHPublicKey(key string) *InventoryBuilder {
	b.inv.Cluster.SSHPublicKey = key
	return b
}

// Build returns the inventory with defaults applied.
func (b *InventoryBuilder) Build() *config.Inventory {
	inv := b.inv
	inv.Nodes = append([]config.Node(nil), b.inv.Nodes...)
	inv.ApplyDefaults()
	return &inv
}

// ToYAML returns the inventory as it would appear in okd4.yaml, without
// defaults applied.
func (b *InventoryBuilder) ToYAML() string {
	out, err := yaml.Marshal(b.inv)
	if err != nil {
		panic(err)
	}
	return string(out)
}

// Host returns a descriptor of the okd4.example.com staging host.
func Host(distro host.Distro, major int) host.Descriptor {
	return host.Descriptor{
		Distro:        distro,
		DistroName:    distro.Family(),
		Major:         major,
		User:          SSHUser,
		ClusterName:   ClusterName,
		ClusterDomain: ClusterDomain,
	}
}

// Fedora returns a Fedora 39 host descriptor.
func Fedora() host.Descriptor {
	return Host(host.DistroFedora, 39)
}

// Release returns the pinned test release.
func Release() release.Release {
	r, err := release.New(ReleaseTag, release.DefaultDownloadBase)
	if err != nil {
		panic(err)
	}
	return r
}

// CompileContext returns a compile context with the test release resolved.
func CompileContext(d host.Descriptor, inv *config.Inventory) compiler.CompileContext {
	if inv == nil {
		inv = NewInventoryBuilder().Build()
	}
	return compiler.NewCompileContext(d, inv).WithRelease(Release())
}

// RunContext returns a run context bound to sh with sudo enabled and a
// nop logger.
func RunContext(sh ports.Shell, d host.Descriptor) compiler.RunContext {
	return compiler.NewRunContext(context.Background()).
		WithHost(d).
		WithShell(sh, true).
		WithLogger(logging.NewNopLogger())
}
