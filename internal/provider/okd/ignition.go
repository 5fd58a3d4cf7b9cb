package okd

import (
	"path"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
)

// IgnitionProvider compiles the ignition stage.
type IgnitionProvider struct{}

// NewIgnitionProvider creates a new IgnitionProvider.
func NewIgnitionProvider() *IgnitionProvider {
	return &IgnitionProvider{}
}

// Name returns the stage name.
func (p *IgnitionProvider) Name() string {
	return IgnitionStage
}

// Compile returns the ignition generation step.
func (p *IgnitionProvider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	return []compiler.Step{NewGenerateStep(ctx.Host().ConfigDir())}, nil
}

// GenerateStep runs the installer to turn install-config.yaml into
// manifests and then ignition files.
type GenerateStep struct {
	dir string
	id  compiler.StepID
}

// NewGenerateStep creates a GenerateStep for the asset directory dir.
func NewGenerateStep(dir string) *GenerateStep {
	return &GenerateStep{
		dir: dir,
		id:  compiler.MustNewStepID(IgnitionStage + ":create:" + dir),
	}
}

// ID returns the step identifier.
func (s *GenerateStep) ID() compiler.StepID {
	return s.id
}

// Check is satisfied once bootstrap.ign exists and skipped while the
// installer or install-config.yaml is missing.
func (s *GenerateStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	facts := ctx.Facts()
	done, err := facts.FileExists(ctx.Context(), path.Join(s.dir, BootstrapIgnition))
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if done {
		return compiler.StatusSatisfied, nil
	}

	for _, input := range []string{InstallerBinary, path.Join(s.dir, InstallConfigFile)} {
		exists, err := facts.FileExists(ctx.Context(), input)
		if err != nil {
			return compiler.StatusUnknown, err
		}
		if !exists {
			return compiler.StatusSkipped, nil
		}
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *GenerateStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "ignition configs", s.dir, "", "bootstrap, master, worker"), nil
}

// Apply creates the manifests, then the ignition configs.
func (s *GenerateStep) Apply(ctx compiler.RunContext) error {
	if _, err := commandutil.Run(ctx, false, InstallerBinary, "create", "manifests", "--dir", s.dir); err != nil {
		return err
	}
	_, err := commandutil.Run(ctx, false, InstallerBinary, "create", "ignition-configs", "--dir", s.dir)
	return err
}

// Explain provides a human-readable explanation.
func (s *GenerateStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Generate Ignition Configs",
		"Runs openshift-install to create manifests and ignition configs in "+s.dir+". This consumes install-config.yaml.",
		[]string{"https://docs.okd.io/latest/installing/installing_bare_metal/installing-bare-metal.html"},
	)
}

// PublishProvider compiles the publish-ignition stage.
type PublishProvider struct{}

// NewPublishProvider creates a new PublishProvider.
func NewPublishProvider() *PublishProvider {
	return &PublishProvider{}
}

// Name returns the stage name.
func (p *PublishProvider) Name() string {
	return PublishStage
}

// Compile returns one publish step per role.
func (p *PublishProvider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	dir := ctx.Host().ConfigDir()
	steps := make([]compiler.Step, 0, len(Roles))
	for _, role := range Roles {
		name := role + ".ign"
		steps = append(steps, NewPublishStep(path.Join(dir, name), path.Join(files.IgnitionDir, name)))
	}
	return steps, nil
}

// PublishStep copies a generated ignition file into the nginx root.
type PublishStep struct {
	src  string
	dest string
	id   compiler.StepID
}

// NewPublishStep creates a new PublishStep.
func NewPublishStep(src, dest string) *PublishStep {
	return &PublishStep{
		src:  src,
		dest: dest,
		id:   compiler.MustNewStepID(PublishStage + ":copy:" + path.Base(dest)),
	}
}

// ID returns the step identifier.
func (s *PublishStep) ID() compiler.StepID {
	return s.id
}

// Check is skipped until the file is generated and satisfied while the
// published copy matches it.
func (s *PublishStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	src, err := ctx.Facts().FileMD5(ctx.Context(), s.src)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if src == "" {
		return compiler.StatusSkipped, nil
	}
	dest, err := ctx.Facts().FileMD5(ctx.Context(), s.dest)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if src == dest {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *PublishStep) Plan(ctx compiler.RunContext) (compiler.Diff, error) {
	dest, err := ctx.Facts().FileMD5(ctx.Context(), s.dest)
	if err != nil {
		return compiler.Diff{}, err
	}
	if dest == "" {
		return compiler.NewDiff(compiler.DiffTypeAdd, "file", s.dest, "", s.src), nil
	}
	return compiler.NewDiff(compiler.DiffTypeModify, "file", s.dest, "", s.src), nil
}

// Apply copies the file and makes it world-readable.
func (s *PublishStep) Apply(ctx compiler.RunContext) error {
	if _, err := commandutil.Run(ctx, true, "cp", s.src, s.dest); err != nil {
		return err
	}
	_, err := commandutil.Run(ctx, true, "chmod", "0644", s.dest)
	return err
}

// Explain provides a human-readable explanation.
func (s *PublishStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Publish Ignition Config",
		"Copies "+s.src+" to "+s.dest+" so booting nodes can fetch it over HTTP.",
		nil,
	)
}
