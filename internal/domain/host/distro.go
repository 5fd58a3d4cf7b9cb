// Package host models the provisioning target: its distribution family,
// the capabilities that family supports, and the cluster it is staging.
package host

import (
	"strings"

	"golang.org/x/text/cases"
)

// Distro is the closed set of distribution families the provisioner knows about.
type Distro string

const (
	// DistroFedora is any Fedora release.
	DistroFedora Distro = "fedora"
	// DistroAlmaLinux is any AlmaLinux release.
	DistroAlmaLinux Distro = "almalinux"
	// DistroCentOSLegacy is CentOS 7 or earlier, which needs EPEL for nginx and haproxy.
	DistroCentOSLegacy Distro = "centos-legacy"
	// DistroCentOS is CentOS 8 or later, including Stream.
	DistroCentOS Distro = "centos"
	// DistroOther is everything else. No host-changing step runs on it.
	DistroOther Distro = "other"
)

// legacyCentOSMajor is the newest CentOS major version that still uses yum and EPEL.
const legacyCentOSMajor = 7

// Classify maps a reported distribution name and major version to a Distro.
// Both os-release IDs ("almalinux") and display names ("CentOS Stream") are accepted.
func Classify(name string, major int) Distro {
	n := fold(name)
	switch {
	case n == "":
		return DistroOther
	case strings.HasPrefix(n, "fedora"):
		return DistroFedora
	case strings.HasPrefix(n, "almalinux"), strings.HasPrefix(n, "alma linux"):
		return DistroAlmaLinux
	case strings.HasPrefix(n, "centos"):
		if major > 0 && major <= legacyCentOSMajor {
			return DistroCentOSLegacy
		}
		return DistroCentOS
	}
	return DistroOther
}

// ParseDistro converts a configured distro name back to a Distro.
// It accepts "centos-legacy" as well as anything Classify understands.
func ParseDistro(name string, major int) Distro {
	if Distro(fold(name)) == DistroCentOSLegacy {
		return DistroCentOSLegacy
	}
	return Classify(name, major)
}

// String returns the distro identifier.
func (d Distro) String() string {
	return string(d)
}

// Family returns the display name of the distribution family.
func (d Distro) Family() string {
	switch d {
	case DistroFedora:
		return "Fedora"
	case DistroAlmaLinux:
		return "AlmaLinux"
	case DistroCentOSLegacy, DistroCentOS:
		return "CentOS"
	case DistroOther:
		return "Other"
	}
	return "Other"
}

// IsSupported reports whether the distro is one of the known families.
func (d Distro) IsSupported() bool {
	switch d {
	case DistroFedora, DistroAlmaLinux, DistroCentOSLegacy, DistroCentOS:
		return true
	case DistroOther:
		return false
	}
	return false
}

// PackageManager returns the package manager binary used on this distro.
func (d Distro) PackageManager() string {
	if d == DistroCentOSLegacy {
		return "yum"
	}
	return "dnf"
}

// fold normalizes a name for comparison. Casers are stateful, so one is
// created per call.
func fold(name string) string {
	return strings.TrimSpace(cases.Fold().String(name))
}
