// Package files creates the staging directory tree and writes rendered
// configuration files to the host.
package files

import (
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
)

// Directory is one directory of the staging layout.
type Directory struct {
	Path       string
	Owner      string
	Mode       string
	Privileged bool
}

// Fixed host paths.
const (
	TFTPRoot       = "/var/lib/tftpboot"
	TFTPImagesDir  = "/var/lib/tftpboot/images/fcos"
	PXELinuxCfgDir = "/var/lib/tftpboot/pxelinux.cfg"
	HTMLRoot       = "/usr/share/nginx/html"
	HTTPImagesDir  = "/usr/share/nginx/html/fcos"
	IgnitionDir    = "/usr/share/nginx/html/ignition"
	BinDir         = "bin"
	DownloadsDir   = "Downloads"
)

// Layout returns the directories the staging host needs. Relative paths are
// in the ssh user's home directory.
func Layout(d host.Descriptor) []Directory {
	owner := d.User + ":" + d.User
	return []Directory{
		{Path: BinDir, Owner: owner, Mode: "0700"},
		{Path: DownloadsDir, Owner: owner, Mode: "0700"},
		{Path: d.ConfigDir(), Owner: owner, Mode: "0700"},
		{Path: TFTPImagesDir, Owner: "root:root", Mode: "0755", Privileged: true},
		{Path: PXELinuxCfgDir, Owner: "root:root", Mode: "0755", Privileged: true},
		{Path: HTTPImagesDir, Owner: "root:root", Mode: "0755", Privileged: true},
		{Path: IgnitionDir, Owner: "root:root", Mode: "0755", Privileged: true},
	}
}
