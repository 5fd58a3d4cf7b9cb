package okd

import (
	"errors"
	"path"
	"slices"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
)

// ErrReleaseUnresolved is returned when the installer stage compiles
// without a release tag.
var ErrReleaseUnresolved = errors.New("release tag not resolved")

// InstallerProvider compiles the installer stage.
type InstallerProvider struct{}

// NewInstallerProvider creates a new InstallerProvider.
func NewInstallerProvider() *InstallerProvider {
	return &InstallerProvider{}
}

// Name returns the stage name.
func (p *InstallerProvider) Name() string {
	return InstallerStage
}

// Compile downloads both release archives, then extracts them.
func (p *InstallerProvider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	rel := ctx.Release()
	if rel.Tag == "" {
		return nil, ErrReleaseUnresolved
	}

	return []compiler.Step{
		NewDownloadStep(rel.Installer),
		NewDownloadStep(rel.Client),
		NewExtractStep("openshift-install", rel.Installer, InstallerBinary),
		NewExtractStep("oc", rel.Client, ClientBinaries...),
	}, nil
}

// DownloadStep fetches a release archive into Downloads.
type DownloadStep struct {
	artifact release.Artifact
	dest     string
	id       compiler.StepID
}

// NewDownloadStep creates a new DownloadStep.
func NewDownloadStep(a release.Artifact) *DownloadStep {
	return &DownloadStep{
		artifact: a,
		dest:     path.Join(files.DownloadsDir, a.File),
		id:       compiler.MustNewStepID(InstallerStage + ":download:" + a.File),
	}
}

// ID returns the step identifier.
func (s *DownloadStep) ID() compiler.StepID {
	return s.id
}

// Check only looks for the file; a partial download is not detected.
func (s *DownloadStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	exists, err := ctx.Facts().FileExists(ctx.Context(), s.dest)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	return existence(exists), nil
}

// Plan returns the diff for this step.
func (s *DownloadStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "download", s.dest, "", s.artifact.URL), nil
}

// Apply downloads the archive.
func (s *DownloadStep) Apply(ctx compiler.RunContext) error {
	return commandutil.Download(ctx, false, s.artifact.URL, s.dest)
}

// Explain provides a human-readable explanation.
func (s *DownloadStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Download Release Archive",
		"Downloads "+s.artifact.File+" into "+files.DownloadsDir+".",
		[]string{"https://github.com/openshift/okd/releases"},
	)
}

// ExtractStep unpacks a downloaded archive into bin unless one of its
// binaries is already there.
type ExtractStep struct {
	archive  string
	binaries []string
	id       compiler.StepID
}

// NewExtractStep creates an ExtractStep named after the binary it provides.
func NewExtractStep(name string, a release.Artifact, binaries ...string) *ExtractStep {
	return &ExtractStep{
		archive:  path.Join(files.DownloadsDir, a.File),
		binaries: slices.Clone(binaries),
		id:       compiler.MustNewStepID(InstallerStage + ":extract:" + name),
	}
}

// ID returns the step identifier.
func (s *ExtractStep) ID() compiler.StepID {
	return s.id
}

// Check is satisfied when any of the binaries exists.
func (s *ExtractStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	for _, bin := range s.binaries {
		exists, err := ctx.Facts().FileExists(ctx.Context(), bin)
		if err != nil {
			return compiler.StatusUnknown, err
		}
		if exists {
			return compiler.StatusSatisfied, nil
		}
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *ExtractStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "binary", s.binaries[0], "", s.archive), nil
}

// Apply extracts the archive.
func (s *ExtractStep) Apply(ctx compiler.RunContext) error {
	_, err := commandutil.Run(ctx, false, "tar", "-xzf", s.archive, "--directory", files.BinDir)
	return err
}

// Explain provides a human-readable explanation.
func (s *ExtractStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Extract Release Archive",
		"Unpacks "+s.archive+" into "+files.BinDir+".",
		nil,
	)
}
