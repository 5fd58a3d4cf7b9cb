package okd

import (
	"fmt"
	"path"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
	"github.com/felixgeelhaar/okd4prov/internal/templates"
	"gopkg.in/yaml.v3"
)

// InstallConfigProvider compiles the install-config stage.
type InstallConfigProvider struct{}

// NewInstallConfigProvider creates a new InstallConfigProvider.
func NewInstallConfigProvider() *InstallConfigProvider {
	return &InstallConfigProvider{}
}

// Name returns the stage name.
func (p *InstallConfigProvider) Name() string {
	return InstallConfigStage
}

// Compile renders install-config.yaml once. The installer consumes the file
// when it generates manifests, so an existing bootstrap.ign means the file
// has done its job and is not written again.
func (p *InstallConfigProvider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	d := ctx.Host()
	c := ctx.Inventory().Cluster

	content, err := RenderInstallConfig(templates.InstallConfigData{
		Name:                 c.Name,
		Domain:               c.Domain,
		ControlPlaneReplicas: c.ControlPlaneReplicas,
		ComputeReplicas:      c.ComputeReplicas,
		ClusterNetwork:       c.ClusterNetwork,
		HostPrefix:           c.HostPrefix,
		ServiceNetwork:       c.ServiceNetwork,
		MachineNetwork:       c.MachineNetwork,
		NetworkType:          c.NetworkType,
		PullSecret:           c.PullSecret,
		SSHKey:               c.SSHPublicKey,
	})
	if err != nil {
		return nil, err
	}

	target := commandutil.File{
		Path:  path.Join(d.ConfigDir(), InstallConfigFile),
		Mode:  "0644",
		Owner: d.User + ":" + d.User,
	}
	step := files.NewRenderStep(
		compiler.MustNewStepID(InstallConfigStage+":render:"+target.Path),
		target,
		func(compiler.RunContext) ([]byte, error) { return content, nil },
	).WithGuard(ignitionAbsent).WithSummary("Render install-config.yaml")

	return []compiler.Step{step}, nil
}

// ignitionAbsent is satisfied once bootstrap.ign exists next to the file.
func ignitionAbsent(ctx compiler.RunContext) (compiler.StepStatus, error) {
	exists, err := ctx.Facts().FileExists(ctx.Context(), assetPath(ctx, BootstrapIgnition))
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if exists {
		return compiler.StatusSatisfied, nil
	}
	return "", nil
}

// RenderInstallConfig renders install-config.yaml and checks that the
// result parses as YAML.
func RenderInstallConfig(data templates.InstallConfigData) ([]byte, error) {
	content, err := templates.Render(templates.InstallConfig, data)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("rendered %s is not valid YAML: %w", InstallConfigFile, err)
	}
	return content, nil
}
