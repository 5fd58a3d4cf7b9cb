package files

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
)

// DirectoryStep creates a directory with a fixed owner and mode.
type DirectoryStep struct {
	dir Directory
	id  compiler.StepID
}

// NewDirectoryStep creates a new DirectoryStep.
func NewDirectoryStep(dir Directory) *DirectoryStep {
	return &DirectoryStep{
		dir: dir,
		id:  compiler.MustNewStepID(Stage + ":create:" + dir.Path),
	}
}

// ID returns the step identifier.
func (s *DirectoryStep) ID() compiler.StepID {
	return s.id
}

// Check reports whether the directory exists. Mode and owner of an
// existing directory are left alone.
func (s *DirectoryStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	exists, err := ctx.Facts().DirectoryExists(ctx.Context(), s.dir.Path)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if exists {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *DirectoryStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "directory", s.dir.Path, "", s.dir.Mode+" "+s.dir.Owner), nil
}

// Apply creates the directory and sets its mode and owner.
func (s *DirectoryStep) Apply(ctx compiler.RunContext) error {
	p := s.dir.Privileged
	if _, err := commandutil.Run(ctx, p, "mkdir", "-p", s.dir.Path); err != nil {
		return err
	}
	if _, err := commandutil.Run(ctx, p, "chmod", s.dir.Mode, s.dir.Path); err != nil {
		return err
	}
	_, err := commandutil.Run(ctx, p, "chown", s.dir.Owner, s.dir.Path)
	return err
}

// Explain provides a human-readable explanation.
func (s *DirectoryStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Create Directory",
		fmt.Sprintf("Creates %s owned by %s with mode %s.", s.dir.Path, s.dir.Owner, s.dir.Mode),
		nil,
	)
}

// RenderFunc produces the content of a rendered file.
type RenderFunc func(ctx compiler.RunContext) ([]byte, error)

// Guard decides a render step's status before content is compared. It
// returns "" to fall through to the comparison.
type Guard func(ctx compiler.RunContext) (compiler.StepStatus, error)

// RenderStep writes a rendered file whenever the host's copy differs.
type RenderStep struct {
	id      compiler.StepID
	target  commandutil.File
	render  RenderFunc
	guard   Guard
	summary string
}

// NewRenderStep creates a RenderStep that writes to target.Path. The
// target's Content is ignored; render supplies it.
func NewRenderStep(id compiler.StepID, target commandutil.File, render RenderFunc) *RenderStep {
	return &RenderStep{id: id, target: target, render: render, summary: "Render File"}
}

// WithGuard returns a copy of the step that consults g first.
func (s *RenderStep) WithGuard(g Guard) *RenderStep {
	c := *s
	c.guard = g
	return &c
}

// WithSummary returns a copy of the step with the explanation summary set.
func (s *RenderStep) WithSummary(summary string) *RenderStep {
	c := *s
	c.summary = summary
	return &c
}

// ID returns the step identifier.
func (s *RenderStep) ID() compiler.StepID {
	return s.id
}

// Path returns the destination path.
func (s *RenderStep) Path() string {
	return s.target.Path
}

// Check runs the guard, then compares checksums of the rendered content and
// the host's file.
func (s *RenderStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	if s.guard != nil {
		status, err := s.guard(ctx)
		if err != nil || status != "" {
			return status, err
		}
	}

	want, err := s.checksum(ctx)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	have, err := ctx.Facts().FileMD5(ctx.Context(), s.target.Path)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if have == want {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

func (s *RenderStep) checksum(ctx compiler.RunContext) (string, error) {
	content, err := s.render(ctx)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:]), nil
}

// Plan reports whether the file is created or replaced.
func (s *RenderStep) Plan(ctx compiler.RunContext) (compiler.Diff, error) {
	have, err := ctx.Facts().FileMD5(ctx.Context(), s.target.Path)
	if err != nil {
		return compiler.Diff{}, err
	}
	if have == "" {
		return compiler.NewDiff(compiler.DiffTypeAdd, "file", s.target.Path, "", s.target.Mode), nil
	}
	return compiler.NewDiff(compiler.DiffTypeModify, "file", s.target.Path, "", ""), nil
}

// Apply renders the content and writes it.
func (s *RenderStep) Apply(ctx compiler.RunContext) error {
	content, err := s.render(ctx)
	if err != nil {
		return err
	}
	f := s.target
	f.Content = content
	return commandutil.Upload(ctx, f)
}

// Explain provides a human-readable explanation.
func (s *RenderStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		s.summary,
		fmt.Sprintf("Writes %s (mode %s) when its content differs from the rendered template.", s.target.Path, s.target.Mode),
		nil,
	)
}
