// Package nginx writes the nginx configuration that serves the CoreOS
// rootfs and the ignition files over HTTP.
package nginx

import (
	"net/url"
	"strconv"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/provider/commandutil"
	"github.com/felixgeelhaar/okd4prov/internal/provider/files"
	"github.com/felixgeelhaar/okd4prov/internal/templates"
)

// Stage is the nginx stage name.
const Stage = "nginx"

// ConfPath is the main nginx configuration file.
const ConfPath = "/etc/nginx/nginx.conf"

// Locations must all appear in ConfPath for it to be left alone.
var Locations = []string{"location /fcos/", "location /ignition/"}

// Provider compiles the nginx stage.
type Provider struct{}

// NewProvider creates a new nginx Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the stage name.
func (p *Provider) Name() string {
	return Stage
}

// Compile returns the nginx.conf step.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	if !ctx.Supports(host.CapNginxConfig) {
		return nil, nil
	}

	data := templates.NginxData{Port: ListenPort(ctx.Inventory().PXE.HTTPBase), Root: files.HTMLRoot}
	content, err := templates.Render(templates.NginxConf, data)
	if err != nil {
		return nil, err
	}

	step := files.NewRenderStep(
		compiler.MustNewStepID(Stage+":config:"+ConfPath),
		commandutil.File{Path: ConfPath, Mode: "0644", Owner: "root:root", Privileged: true},
		func(compiler.RunContext) ([]byte, error) { return content, nil },
	).WithGuard(locationsPresent).WithSummary("Configure nginx")

	return []compiler.Step{step}, nil
}

// locationsPresent leaves an existing configuration alone when it already
// serves both locations, and replaces it otherwise.
func locationsPresent(ctx compiler.RunContext) (compiler.StepStatus, error) {
	for _, loc := range Locations {
		found, err := ctx.Facts().FindInFile(ctx.Context(), ConfPath, loc)
		if err != nil {
			return compiler.StatusUnknown, err
		}
		if !found {
			return compiler.StatusNeedsApply, nil
		}
	}
	return compiler.StatusSatisfied, nil
}

// ListenPort returns the port of the HTTP base URL, or the default.
func ListenPort(httpBase string) int {
	u, err := url.Parse(httpBase)
	if err != nil || u.Port() == "" {
		return config.DefaultHTTPPort
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return config.DefaultHTTPPort
	}
	return port
}
