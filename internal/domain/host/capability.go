package host

// Capability names a group of host changes that only some distros support.
type Capability int

const (
	// CapEPEL installs the epel-release repository package.
	CapEPEL Capability = iota
	// CapPackages installs the TFTP, syslinux, nginx and haproxy packages.
	CapPackages
	// CapDirectories creates the staging directory tree.
	CapDirectories
	// CapSyslinuxCopy copies syslinux boot files into the TFTP root.
	CapSyslinuxCopy
	// CapNginxConfig writes the nginx configuration.
	CapNginxConfig
	// CapServices enables and starts systemd units.
	CapServices
	// CapFirewall opens firewalld services.
	CapFirewall
)

var capabilityNames = map[Capability]string{
	CapEPEL:         "epel",
	CapPackages:     "packages",
	CapDirectories:  "directories",
	CapSyslinuxCopy: "syslinux-copy",
	CapNginxConfig:  "nginx-config",
	CapServices:     "services",
	CapFirewall:     "firewall",
}

// String returns the capability name.
func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

// Supports reports whether steps gated on the capability may run on this distro.
func (d Distro) Supports(c Capability) bool {
	switch c {
	case CapEPEL:
		return d == DistroCentOSLegacy
	case CapSyslinuxCopy:
		// syslinux-tftpboot installs into /tftpboot only on these families.
		return d == DistroFedora || d == DistroAlmaLinux
	case CapPackages, CapDirectories, CapNginxConfig, CapServices, CapFirewall:
		return d.IsSupported()
	}
	return false
}
