package packages

import (
	"fmt"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
)

// InstallStep installs one rpm package.
type InstallStep struct {
	name    string
	manager string
	id      compiler.StepID
}

// NewInstallStep creates an InstallStep for stage. manager is the package
// manager binary, dnf or yum.
func NewInstallStep(stage, name, manager string) *InstallStep {
	return &InstallStep{
		name:    name,
		manager: manager,
		id:      compiler.MustNewStepID(stage + ":install:" + name),
	}
}

// ID returns the step identifier.
func (s *InstallStep) ID() compiler.StepID {
	return s.id
}

// Check reports whether the package is installed.
func (s *InstallStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	installed, err := ctx.Facts().PackageInstalled(ctx.Context(), s.name)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if installed {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *InstallStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "package", s.name, "", s.manager), nil
}

// Apply installs the package.
func (s *InstallStep) Apply(ctx compiler.RunContext) error {
	_, err := commandutil.Run(ctx, true, s.manager, "install", "-y", s.name)
	return err
}

// Explain provides a human-readable explanation.
func (s *InstallStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	if s.name == EPELPackage {
		return compiler.NewExplanation(
			"Install EPEL",
			"Enables Extra Packages for Enterprise Linux, which provides nginx and haproxy on CentOS 7 and earlier.",
			[]string{"https://docs.fedoraproject.org/en-US/epel/"},
		)
	}
	return compiler.NewExplanation(
		"Install Package",
		fmt.Sprintf("Installs %s with %s.", s.name, s.manager),
		nil,
	)
}
