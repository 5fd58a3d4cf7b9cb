// Package dns writes a BIND zone snippet with the records an OKD cluster
// expects. The snippet is left next to the installer assets for the
// operator to load into their DNS server.
package dns

import (
	"errors"
	"net"
	"net/url"
	"path"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
	"github.com/felixgeelhaar/okd4prov/internal/templates"
)

// Stage is the dns-records stage name.
const Stage = "dns-records"

// ZoneFile is the snippet's name inside the installer directory.
const ZoneFile = "dns-records.zone"

// ErrNoLoadBalancer is returned when neither the host name nor the HTTP
// base names the staging host.
var ErrNoLoadBalancer = errors.New("no address for the load balancer: set host.hostname or pxe.http_base")

// Provider compiles the dns-records stage.
type Provider struct{}

// NewProvider creates a new dns Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the stage name.
func (p *Provider) Name() string {
	return Stage
}

// Compile renders the zone snippet when nodes are configured.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	inv := ctx.Inventory()
	if len(inv.Nodes) == 0 {
		return nil, nil
	}

	lb, err := LoadBalancerRecord(inv)
	if err != nil {
		return nil, err
	}

	data := templates.DNSData{FQDN: inv.Cluster.FQDN(), LoadBalancer: lb}
	for _, n := range inv.Nodes {
		data.Nodes = append(data.Nodes, templates.Backend{Name: n.Name, Address: n.IP})
	}
	content, err := templates.Render(templates.DNSRecords, data)
	if err != nil {
		return nil, err
	}

	d := ctx.Host()
	target := commandutil.File{
		Path:  path.Join(d.ConfigDir(), ZoneFile),
		Mode:  "0644",
		Owner: d.User + ":" + d.User,
	}
	step := files.NewRenderStep(
		compiler.MustNewStepID(Stage+":render:"+target.Path),
		target,
		func(compiler.RunContext) ([]byte, error) { return content, nil },
	).WithSummary("Write DNS Records")

	return []compiler.Step{step}, nil
}

// LoadBalancerRecord returns the record type and value the api, api-int and
// *.apps names point at: an A record for an IP address, a CNAME otherwise.
func LoadBalancerRecord(inv *config.Inventory) (string, error) {
	name := inv.Host.Hostname
	if name == "" && inv.PXE.HTTPBase != "" {
		if u, err := url.Parse(inv.PXE.HTTPBase); err == nil {
			name = u.Hostname()
		}
	}
	if name == "" {
		return "", ErrNoLoadBalancer
	}
	if net.ParseIP(name) != nil {
		return "A\t" + name, nil
	}
	return "CNAME\t" + name + ".", nil
}
