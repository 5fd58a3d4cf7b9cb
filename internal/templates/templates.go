// Package templates renders the configuration files okd4prov writes to the
// staging host. Templates are embedded and use the sprig function set.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Template names.
const (
	NginxConf       = "nginx.conf.tmpl"
	PXELinuxDefault = "pxelinux-default.tmpl"
	InstallConfig   = "install-config.yaml.tmpl"
	HAProxyConfig   = "haproxy.cfg.tmpl"
	DNSRecords      = "dns-records.zone.tmpl"
)

//go:embed files/*.tmpl
var files embed.FS

var parsed = template.Must(
	template.New("okd4prov").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		ParseFS(files, "files/*.tmpl"),
)

// NginxData fills the nginx.conf template.
type NginxData struct {
	Port int
	Root string
}

// BootMenuData fills the pxelinux default menu. Kernel, Initramfs and Rootfs
// are file names under the TFTP and HTTP fcos directories.
type BootMenuData struct {
	Cluster     string
	Kernel      string
	Initramfs   string
	Rootfs      string
	HTTPBase    string
	InstallDisk string
	Roles       []string
}

// InstallConfigData fills install-config.yaml.
type InstallConfigData struct {
	Name                 string
	Domain               string
	ControlPlaneReplicas int
	ComputeReplicas      int
	ClusterNetwork       string
	HostPrefix           int
	ServiceNetwork       string
	MachineNetwork       string
	NetworkType          string
	PullSecret           string
	SSHKey               string
}

// Backend is one named address in a rendered server list.
type Backend struct {
	Name    string
	Address string
}

// HAProxyData fills haproxy.cfg.
type HAProxyData struct {
	ControlPlane []Backend
	Ingress      []Backend
}

// DNSData fills the BIND zone snippet. LoadBalancer is the record type and
// value, e.g. "A\t192.168.1.10" or "CNAME\tlb.example.com.".
type DNSData struct {
	FQDN         string
	LoadBalancer string
	Nodes        []Backend
}

// Render executes the named template with data.
func Render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := parsed.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
