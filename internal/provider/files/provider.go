package files

import (
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
)

// Stage is the directories stage name.
const Stage = "directories"

// Provider compiles the directories stage.
type Provider struct{}

// NewProvider creates a new directories Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the stage name.
func (p *Provider) Name() string {
	return Stage
}

// Compile returns one step per layout directory.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	if !ctx.Supports(host.CapDirectories) {
		return nil, nil
	}

	layout := Layout(ctx.Host())
	steps := make([]compiler.Step, 0, len(layout))
	for _, dir := range layout {
		steps = append(steps, NewDirectoryStep(dir))
	}
	return steps, nil
}
