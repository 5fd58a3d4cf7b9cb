// Package syslinux copies the PXELINUX boot loader files installed by
// syslinux-tftpboot into the TFTP root.
package syslinux

import (
	"path"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
)

// Stage is the syslinux stage name.
const Stage = "syslinux"

// SourceDir is where syslinux-tftpboot installs its files on Fedora and AlmaLinux.
const SourceDir = "/tftpboot"

// Files are the boot loader and menu modules the boot menu needs.
var Files = []string{"ldlinux.c32", "libcom32.c32", "libutil.c32", "menu.c32", "pxelinux.0"}

// Provider compiles the syslinux stage.
type Provider struct{}

// NewProvider creates a new syslinux Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the stage name.
func (p *Provider) Name() string {
	return Stage
}

// Compile returns one copy step per boot file.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	if !ctx.Supports(host.CapSyslinuxCopy) {
		return nil, nil
	}

	steps := make([]compiler.Step, 0, len(Files))
	for _, name := range Files {
		steps = append(steps, NewCopyStep(path.Join(SourceDir, name), path.Join(files.TFTPRoot, name)))
	}
	return steps, nil
}

// CopyStep copies one file when source and destination checksums differ.
type CopyStep struct {
	src  string
	dest string
	id   compiler.StepID
}

// NewCopyStep creates a new CopyStep.
func NewCopyStep(src, dest string) *CopyStep {
	return &CopyStep{
		src:  src,
		dest: dest,
		id:   compiler.MustNewStepID(Stage + ":copy:" + path.Base(dest)),
	}
}

// ID returns the step identifier.
func (s *CopyStep) ID() compiler.StepID {
	return s.id
}

// Check compares md5 checksums. A missing file has an empty checksum, so a
// source that was never installed matches a missing destination.
func (s *CopyStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	facts := ctx.Facts()
	src, err := facts.FileMD5(ctx.Context(), s.src)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	dest, err := facts.FileMD5(ctx.Context(), s.dest)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if src == dest {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *CopyStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeModify, "file", s.dest, "", s.src), nil
}

// Apply copies the file.
func (s *CopyStep) Apply(ctx compiler.RunContext) error {
	_, err := commandutil.Run(ctx, true, "cp", s.src, s.dest)
	return err
}

// Explain provides a human-readable explanation.
func (s *CopyStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Copy Syslinux File",
		"Copies "+s.src+" into the TFTP root so PXE clients can load it.",
		[]string{"https://wiki.syslinux.org/wiki/index.php?title=PXELINUX"},
	)
}
