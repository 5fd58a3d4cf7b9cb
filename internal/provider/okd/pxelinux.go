package okd

import (
	"errors"
	"path"
	"strings"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
	"github.com/felixgeelhaar/okd4prov/internal/templates"
)

// BootMenuPath is the default PXELINUX configuration.
var BootMenuPath = path.Join(files.PXELinuxCfgDir, "default")

// ErrNoHTTPBase is returned when the boot menu has no URL to point at.
var ErrNoHTTPBase = errors.New("pxe.http_base is required to render the boot menu")

// PXELinuxProvider compiles the pxelinux stage.
type PXELinuxProvider struct{}

// NewPXELinuxProvider creates a new PXELinuxProvider.
func NewPXELinuxProvider() *PXELinuxProvider {
	return &PXELinuxProvider{}
}

// Name returns the stage name.
func (p *PXELinuxProvider) Name() string {
	return PXELinuxStage
}

// Compile returns the boot menu step. Unlike install-config.yaml the menu
// has no downstream guard, so it is rewritten whenever it differs.
func (p *PXELinuxProvider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	inv := ctx.Inventory()
	if inv.PXE.HTTPBase == "" {
		return nil, ErrNoHTTPBase
	}

	base := inv.PXE
	fqdn := inv.Cluster.FQDN()
	render := func(rc compiler.RunContext) ([]byte, error) {
		a, err := artifacts(rc, base.Architecture)
		if err != nil {
			return nil, err
		}
		return templates.Render(templates.PXELinuxDefault, templates.BootMenuData{
			Cluster:     fqdn,
			Kernel:      a.Kernel.File,
			Initramfs:   a.Initramfs.File,
			Rootfs:      a.Rootfs.File,
			HTTPBase:    strings.TrimRight(base.HTTPBase, "/"),
			InstallDisk: base.InstallDisk,
			Roles:       Roles,
		})
	}

	step := files.NewRenderStep(
		compiler.MustNewStepID(PXELinuxStage+":render:"+BootMenuPath),
		commandutil.File{Path: BootMenuPath, Mode: "0644", Owner: "root:root", Privileged: true},
		render,
	).WithGuard(requireInstaller).WithSummary("Render PXE Boot Menu")

	return []compiler.Step{step}, nil
}

// requireInstaller skips the step until the installer is extracted.
func requireInstaller(ctx compiler.RunContext) (compiler.StepStatus, error) {
	ok, err := installerPresent(ctx)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if !ok {
		return compiler.StatusSkipped, nil
	}
	return "", nil
}
