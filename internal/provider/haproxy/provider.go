// Package haproxy load-balances the cluster API, machine-config and ingress
// ports across the configured nodes.
package haproxy

import (
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
	"github.com/felixgeelhaar/okd4prov/internal/provider/service"
	"github.com/felixgeelhaar/okd4prov/internal/templates"
)

// Stage is the haproxy stage name.
const Stage = "haproxy"

// ConfPath is the haproxy configuration file.
const ConfPath = "/etc/haproxy/haproxy.cfg"

// Unit is the haproxy systemd unit.
const Unit = "haproxy.service"

// Provider compiles the haproxy stage.
type Provider struct{}

// NewProvider creates a new haproxy Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the stage name.
func (p *Provider) Name() string {
	return Stage
}

// Compile renders haproxy.cfg and enables haproxy. Without nodes there is
// nothing to balance and the stage does not apply.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	inv := ctx.Inventory()
	if len(inv.Nodes) == 0 || !ctx.Supports(host.CapServices) {
		return nil, nil
	}

	content, err := templates.Render(templates.HAProxyConfig, Backends(inv))
	if err != nil {
		return nil, err
	}

	render := files.NewRenderStep(
		compiler.MustNewStepID(Stage+":config:"+ConfPath),
		commandutil.File{Path: ConfPath, Mode: "0644", Owner: "root:root", Privileged: true},
		func(compiler.RunContext) ([]byte, error) { return content, nil },
	).WithSummary("Configure haproxy")

	return []compiler.Step{render, service.NewEnableStep(Stage, Unit)}, nil
}

// Backends splits the nodes into the control plane (bootstrap and masters)
// and ingress. Ingress falls back to the masters when there are no workers.
func Backends(inv *config.Inventory) templates.HAProxyData {
	var data templates.HAProxyData
	for _, role := range []string{config.RoleBootstrap, config.RoleMaster} {
		data.ControlPlane = append(data.ControlPlane, backends(inv.NodesByRole(role))...)
	}
	data.Ingress = backends(inv.NodesByRole(config.RoleWorker))
	if len(data.Ingress) == 0 {
		data.Ingress = backends(inv.NodesByRole(config.RoleMaster))
	}
	return data
}

func backends(nodes []config.Node) []templates.Backend {
	out := make([]templates.Backend, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, templates.Backend{Name: n.Name, Address: n.IP})
	}
	return out
}
