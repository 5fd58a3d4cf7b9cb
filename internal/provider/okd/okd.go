// Package okd stages the OKD installer on the host: it downloads the
// release archives, fetches the CoreOS PXE images, renders the boot menu
// and install-config.yaml, and generates and publishes the ignition files.
//
// Relative paths are in the ssh user's home directory.
package okd

import (
	"path"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
)

// Stage names.
const (
	InstallerStage     = "installer"
	PXEImagesStage     = "pxe-images"
	PXELinuxStage      = "pxelinux"
	InstallConfigStage = "install-config"
	IgnitionStage      = "ignition"
	PublishStage       = "publish-ignition"
)

// Binaries extracted from the release archives.
var (
	InstallerBinary = path.Join(files.BinDir, "openshift-install")
	ClientBinaries  = []string{path.Join(files.BinDir, "oc"), path.Join(files.BinDir, "kubectl")}
)

// Roles that get an ignition file, in the order the installer writes them.
var Roles = []string{"bootstrap", "master", "worker"}

// Asset file names inside the installer directory.
const (
	InstallConfigFile = "install-config.yaml"
	BootstrapIgnition = "bootstrap.ign"
)

// installerPresent reports whether the installer binary has been extracted.
func installerPresent(ctx compiler.RunContext) (bool, error) {
	return ctx.Facts().FileExists(ctx.Context(), InstallerBinary)
}

// artifacts asks the installer which CoreOS images match it.
func artifacts(ctx compiler.RunContext, arch string) (release.PXEArtifacts, error) {
	return ctx.Facts().CoreOSStream(ctx.Context(), InstallerBinary, arch)
}

func assetPath(ctx compiler.RunContext, name string) string {
	return path.Join(ctx.Host().ConfigDir(), name)
}

func existence(exists bool) compiler.StepStatus {
	if exists {
		return compiler.StatusSatisfied
	}
	return compiler.StatusNeedsApply
}
