package okd

import (
	"fmt"
	"path"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
)

// PXE image kinds.
const (
	Kernel    = "kernel"
	Initramfs = "initramfs"
	Rootfs    = "rootfs"
)

// PXEImagesProvider compiles the pxe-images stage.
type PXEImagesProvider struct{}

// NewPXEImagesProvider creates a new PXEImagesProvider.
func NewPXEImagesProvider() *PXEImagesProvider {
	return &PXEImagesProvider{}
}

// Name returns the stage name.
func (p *PXEImagesProvider) Name() string {
	return PXEImagesStage
}

// Compile returns one step per image. Kernel and initramfs are served over
// TFTP, the rootfs over HTTP.
func (p *PXEImagesProvider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	pxe := ctx.Inventory().PXE
	return []compiler.Step{
		NewImageStep(Kernel, pxe.Architecture, files.TFTPImagesDir, files.TFTPImagesDir),
		NewImageStep(Initramfs, pxe.Architecture, files.TFTPImagesDir, files.TFTPImagesDir),
		NewImageStep(Rootfs, pxe.Architecture, pxe.RootfsCheckDir, files.HTTPImagesDir),
	}, nil
}

// ImageStep downloads one CoreOS PXE image. The image is looked for in
// checkDir and downloaded to destDir; the two differ only when the
// inventory says so.
type ImageStep struct {
	kind     string
	arch     string
	checkDir string
	destDir  string
	id       compiler.StepID
}

// NewImageStep creates a new ImageStep.
func NewImageStep(kind, arch, checkDir, destDir string) *ImageStep {
	return &ImageStep{
		kind:     kind,
		arch:     arch,
		checkDir: checkDir,
		destDir:  destDir,
		id:       compiler.MustNewStepID(PXEImagesStage + ":download:" + kind),
	}
}

// ID returns the step identifier.
func (s *ImageStep) ID() compiler.StepID {
	return s.id
}

// Check is skipped until the installer is extracted, since only the
// installer knows which images match it.
func (s *ImageStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	ok, err := installerPresent(ctx)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if !ok {
		return compiler.StatusSkipped, nil
	}

	img, err := s.image(ctx)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if s.checkDir != s.destDir {
		ctx.Warn("image existence is checked outside its download directory",
			ports.F("image", img.File),
			ports.F("check_dir", s.checkDir),
			ports.F("download_dir", s.destDir))
	}

	exists, err := ctx.Facts().FileExists(ctx.Context(), path.Join(s.checkDir, img.File))
	if err != nil {
		return compiler.StatusUnknown, err
	}
	return existence(exists), nil
}

func (s *ImageStep) image(ctx compiler.RunContext) (release.PXEArtifact, error) {
	a, err := artifacts(ctx, s.arch)
	if err != nil {
		return release.PXEArtifact{}, err
	}
	switch s.kind {
	case Kernel:
		return a.Kernel, nil
	case Initramfs:
		return a.Initramfs, nil
	case Rootfs:
		return a.Rootfs, nil
	}
	return release.PXEArtifact{}, fmt.Errorf("unknown image kind %q", s.kind)
}

// Plan returns the diff for this step.
func (s *ImageStep) Plan(ctx compiler.RunContext) (compiler.Diff, error) {
	img, err := s.image(ctx)
	if err != nil {
		return compiler.Diff{}, err
	}
	return compiler.NewDiff(compiler.DiffTypeAdd, "pxe image", path.Join(s.destDir, img.File), "", img.Location), nil
}

// Apply downloads the image.
func (s *ImageStep) Apply(ctx compiler.RunContext) error {
	img, err := s.image(ctx)
	if err != nil {
		return err
	}
	return commandutil.Download(ctx, true, img.Location, path.Join(s.destDir, img.File))
}

// Explain provides a human-readable explanation.
func (s *ImageStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Download PXE Image",
		fmt.Sprintf("Downloads the Fedora CoreOS %s %s image matching the installer into %s.", s.arch, s.kind, s.destDir),
		[]string{"https://docs.fedoraproject.org/en-US/fedora-coreos/bare-metal/"},
	)
}
