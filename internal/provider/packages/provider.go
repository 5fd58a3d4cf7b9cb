// Package packages installs rpm packages: the EPEL repository on legacy
// CentOS and the TFTP, syslinux, nginx and haproxy packages everywhere else.
package packages

import (
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
)

// Stage names.
const (
	ReposStage = "package-repos"
	Stage      = "packages"
)

// EPELPackage provides nginx and haproxy on CentOS 7 and earlier.
const EPELPackage = "epel-release"

// ReposProvider compiles the package-repos stage.
type ReposProvider struct{}

// NewReposProvider creates a new ReposProvider.
func NewReposProvider() *ReposProvider {
	return &ReposProvider{}
}

// Name returns the stage name.
func (p *ReposProvider) Name() string {
	return ReposStage
}

// Compile returns the epel-release install on hosts that need it.
func (p *ReposProvider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	if !ctx.Supports(host.CapEPEL) {
		return nil, nil
	}
	pm := ctx.Host().Distro.PackageManager()
	return []compiler.Step{NewInstallStep(ReposStage, EPELPackage, pm)}, nil
}

// Provider compiles the packages stage.
type Provider struct{}

// NewProvider creates a new packages Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the stage name.
func (p *Provider) Name() string {
	return Stage
}

// Compile returns one install step per configured package.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	if !ctx.Supports(host.CapPackages) {
		return nil, nil
	}

	pm := ctx.Host().Distro.PackageManager()
	pkgs := ctx.Inventory().Packages
	steps := make([]compiler.Step, 0, len(pkgs))
	for _, pkg := range pkgs {
		steps = append(steps, NewInstallStep(Stage, pkg, pm))
	}
	return steps, nil
}
