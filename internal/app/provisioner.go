// Package app wires the inventory, the host connection, the providers and
// the executor into the plan and apply operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/felixgeelhaar/okd4prov/internal/adapters/github"
	"github.com/felixgeelhaar/okd4prov/internal/adapters/logging"
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/domain/execution"
	"github.com/felixgeelhaar/okd4prov/internal/domain/facts"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/felixgeelhaar/okd4prov/internal/provider/dns"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
	"github.com/felixgeelhaar/okd4prov/internal/provider/firewall"
	"github.com/felixgeelhaar/okd4prov/internal/provider/haproxy"
	"github.com/felixgeelhaar/okd4prov/internal/provider/nginx"
	"github.com/felixgeelhaar/okd4prov/internal/provider/okd"
	"github.com/felixgeelhaar/okd4prov/internal/provider/packages"
	"github.com/felixgeelhaar/okd4prov/internal/provider/service"
	"github.com/felixgeelhaar/okd4prov/internal/provider/syslinux"
	"github.com/google/uuid"
)

// Connector opens a shell to the host an inventory describes.
type Connector func(ctx context.Context, h config.HostConfig) (ports.Shell, error)

// ReleaseResolver returns the port used to look up the latest release.
type ReleaseResolver func(latestURL string) ports.ReleasePort

// Provisioner is the main application orchestrator.
type Provisioner struct {
	loader   *config.Loader
	compiler *compiler.Compiler
	planner  *execution.Planner
	executor *execution.Executor
	logger   ports.Logger
	recorder ports.RunRecorder
	connect  Connector
	releases ReleaseResolver
	printer  *Printer
	newRunID func() string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLogger sets the logger (default: nop).
func WithLogger(l ports.Logger) Option {
	return func(p *Provisioner) {
		p.logger = l
	}
}

// WithRecorder sets where step and run outcomes are reported.
func WithRecorder(r ports.RunRecorder) Option {
	return func(p *Provisioner) {
		p.recorder = r
	}
}

// WithConnector replaces the ssh/local connector.
func WithConnector(c Connector) Option {
	return func(p *Provisioner) {
		p.connect = c
	}
}

// WithReleaseResolver replaces the GitHub latest-release lookup.
func WithReleaseResolver(r ReleaseResolver) Option {
	return func(p *Provisioner) {
		p.releases = r
	}
}

// WithColor toggles styled output.
func WithColor(enabled bool) Option {
	return func(p *Provisioner) {
		p.printer.color = enabled
	}
}

// WithVerbose adds step explanations to the printed plan.
func WithVerbose(enabled bool) Option {
	return func(p *Provisioner) {
		p.printer.verbose = enabled
	}
}

// New creates a Provisioner that prints to out.
func New(out io.Writer, opts ...Option) *Provisioner {
	p := &Provisioner{
		loader:   config.NewLoader(),
		compiler: NewCompiler(),
		planner:  execution.NewPlanner(),
		executor: execution.NewExecutor(),
		logger:   logging.NewNopLogger(),
		recorder: ports.NopRecorder{},
		connect:  Connect,
		releases: func(latestURL string) ports.ReleasePort {
			return github.NewClient(latestURL)
		},
		printer:  NewPrinter(out, true),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewCompiler returns a compiler with every stage registered in default
// sequence order.
func NewCompiler() *compiler.Compiler {
	c := compiler.NewCompiler()
	c.RegisterProvider(packages.NewReposProvider())
	c.RegisterProvider(packages.NewProvider())
	c.RegisterProvider(files.NewProvider())
	c.RegisterProvider(syslinux.NewProvider())
	c.RegisterProvider(nginx.NewProvider())
	c.RegisterProvider(firewall.NewProvider())
	c.RegisterProvider(service.NewProvider())
	c.RegisterProvider(okd.NewInstallerProvider())
	c.RegisterProvider(okd.NewPXEImagesProvider())
	c.RegisterProvider(okd.NewPXELinuxProvider())
	c.RegisterProvider(okd.NewInstallConfigProvider())
	c.RegisterProvider(okd.NewIgnitionProvider())
	c.RegisterProvider(okd.NewPublishProvider())
	c.RegisterProvider(haproxy.NewProvider())
	c.RegisterProvider(dns.NewProvider())
	return c
}

// Printer returns the output printer.
func (p *Provisioner) Printer() *Printer {
	return p.printer
}

// Stages returns the registered stage names in default order.
func (p *Provisioner) Stages() []string {
	providers := p.compiler.Providers()
	names := make([]string, 0, len(providers))
	for _, pr := range providers {
		names = append(names, pr.Name())
	}
	return names
}

// Open loads the inventory at configPath, connects to the host and
// discovers its descriptor. The caller must Close the session.
func (p *Provisioner) Open(ctx context.Context, configPath string) (*Session, error) {
	inv, err := p.loader.Load(configPath)
	if err != nil {
		return nil, err
	}
	return p.OpenInventory(ctx, inv)
}

// OpenInventory connects to the host of an already loaded inventory.
func (p *Provisioner) OpenInventory(ctx context.Context, inv *config.Inventory) (*Session, error) {
	runID := p.newRunID()
	logger := p.logger.With(ports.F("run", runID))

	logger.Debug(ctx, "connecting",
		ports.F("transport", inv.Host.Transport),
		ports.F("host", inv.Host.Hostname))

	shell, err := p.connect(ctx, inv.Host)
	if err != nil {
		return nil, fmt.Errorf("connect to host: %w", err)
	}

	d, err := Discover(ctx, facts.NewGatherer(shell, inv.Host.UseSudo()), inv)
	if err != nil {
		_ = shell.Close()
		return nil, err
	}
	if !d.Distro.IsSupported() {
		logger.Warn(ctx, "unsupported distribution; only distro-independent stages will run",
			ports.F("distro", d.DistroName))
	}
	logger.Info(ctx, "discovered host", ports.F("host", d.String()))

	return &Session{
		RunID:     runID,
		Inventory: inv,
		Host:      d,
		shell:     shell,
		sudo:      inv.Host.UseSudo(),
		logger:    logger,
	}, nil
}

// Compile resolves the release when the installer stage needs it and
// compiles the inventory's steps. It is a no-op on a compiled session.
func (p *Provisioner) Compile(ctx context.Context, s *Session) error {
	if s.Sequence != nil {
		return nil
	}

	cctx := compiler.NewCompileContext(s.Host, s.Inventory)
	if slices.Contains(s.Inventory.Steps, okd.InstallerStage) {
		rel, err := p.resolveRelease(ctx, s)
		if err != nil {
			return err
		}
		s.Release = rel
		cctx = cctx.WithRelease(rel)
	}

	seq, err := p.compiler.Compile(cctx, s.Inventory.Steps)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	s.Sequence = seq
	s.logger.Debug(ctx, "compiled sequence",
		ports.F("steps", seq.Len()),
		ports.F("inapplicable", len(seq.Inapplicable())))
	return nil
}

func (p *Provisioner) resolveRelease(ctx context.Context, s *Session) (release.Release, error) {
	cfg := s.Inventory.Release
	tag := cfg.Tag
	if tag == "" {
		var err error
		tag, err = p.releases(cfg.LatestURL).LatestTag(ctx)
		if err != nil {
			return release.Release{}, fmt.Errorf("resolve latest release: %w", err)
		}
		s.logger.Info(ctx, "resolved latest release", ports.F("tag", tag))
	}
	if !release.IsSemver(tag) {
		s.logger.Warn(ctx, "release tag is not a semantic version", ports.F("tag", tag))
	}
	return release.New(tag, cfg.DownloadBase)
}

// Plan checks every step without applying anything.
func (p *Provisioner) Plan(ctx context.Context, s *Session) (*execution.Plan, error) {
	if err := p.Compile(ctx, s); err != nil {
		return nil, err
	}
	plan, err := p.planner.Plan(s.runContext(ctx), s.Sequence)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return plan, nil
}

// Apply runs the sequence with check-then-act semantics. It stops at the
// first failed step and returns the results of every step that ran.
func (p *Provisioner) Apply(ctx context.Context, s *Session, dryRun bool) ([]execution.StepResult, error) {
	if err := p.Compile(ctx, s); err != nil {
		return nil, err
	}
	ex := p.executor.
		WithDryRun(dryRun).
		WithRecorder(p.recorder).
		WithProgress(p.printer.Progress)
	return ex.Execute(s.runContext(ctx), s.Sequence)
}

// Discover builds the host descriptor from os-release and the login user.
func Discover(ctx context.Context, g *facts.Gatherer, inv *config.Inventory) (host.Descriptor, error) {
	rel, err := g.OSRelease(ctx)
	if err != nil {
		return host.Descriptor{}, fmt.Errorf("discover distribution: %w", err)
	}
	distro, err := rel.Distro()
	if err != nil {
		return host.Descriptor{}, fmt.Errorf("discover distribution: %w", err)
	}
	major, _ := rel.Major()

	user, err := g.User(ctx)
	if err != nil {
		return host.Descriptor{}, fmt.Errorf("discover user: %w", err)
	}

	name := rel.Name
	if name == "" {
		name = rel.ID
	}

	d := host.Descriptor{
		Distro:        distro,
		DistroName:    name,
		Major:         major,
		User:          user,
		ClusterName:   inv.Cluster.Name,
		ClusterDomain: inv.Cluster.Domain,
	}
	if err := d.Validate(); err != nil {
		return host.Descriptor{}, err
	}
	return d, nil
}
