package host

import (
	"errors"
	"fmt"
)

// Errors returned by Descriptor.Validate.
var (
	ErrMissingUser          = errors.New("ssh user is required")
	ErrMissingClusterName   = errors.New("cluster name is required")
	ErrMissingClusterDomain = errors.New("cluster domain is required")
)

// Descriptor is the read-only description of the target host for one run.
type Descriptor struct {
	Distro        Distro
	DistroName    string
	Major         int
	User          string
	ClusterName   string
	ClusterDomain string
}

// Validate checks that the descriptor carries everything steps rely on.
func (d Descriptor) Validate() error {
	if d.User == "" {
		return ErrMissingUser
	}
	if d.ClusterName == "" {
		return ErrMissingClusterName
	}
	if d.ClusterDomain == "" {
		return ErrMissingClusterDomain
	}
	return nil
}

// ClusterFQDN returns "<name>.<domain>".
func (d Descriptor) ClusterFQDN() string {
	return d.ClusterName + "." + d.ClusterDomain
}

// ConfigDir returns the installer asset directory, relative to the user's home.
func (d Descriptor) ConfigDir() string {
	return d.ClusterFQDN() + "-config"
}

// Supports reports whether the host's distro supports the capability.
func (d Descriptor) Supports(c Capability) bool {
	return d.Distro.Supports(c)
}

// String returns a short human-readable summary.
func (d Descriptor) String() string {
	if d.Major > 0 {
		return fmt.Sprintf("%s %d (%s) user=%s cluster=%s", d.Distro.Family(), d.Major, d.Distro, d.User, d.ClusterFQDN())
	}
	return fmt.Sprintf("%s (%s) user=%s cluster=%s", d.Distro.Family(), d.Distro, d.User, d.ClusterFQDN())
}
