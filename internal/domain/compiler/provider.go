package compiler

import (
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
)

// Provider compiles one named stage of the provisioning sequence into steps.
type Provider interface {
	// Name returns the stage name used in the inventory's steps list
	// (e.g. "packages", "firewall", "pxe-images").
	Name() string

	// Compile returns the stage's steps in execution order. A provider whose
	// stage does not apply to the host returns no steps and no error.
	Compile(ctx CompileContext) ([]Step, error)
}

// CompileContext carries what providers compile from: the host descriptor,
// the inventory and the resolved release.
type CompileContext struct {
	host      host.Descriptor
	inventory *config.Inventory
	release   release.Release
}

// NewCompileContext creates a CompileContext for the given host and inventory.
func NewCompileContext(d host.Descriptor, inv *config.Inventory) CompileContext {
	return CompileContext{host: d, inventory: inv}
}

// Host returns the target host descriptor.
func (c CompileContext) Host() host.Descriptor {
	return c.host
}

// Inventory returns the loaded inventory. It is never nil.
func (c CompileContext) Inventory() *config.Inventory {
	if c.inventory == nil {
		return config.Default()
	}
	return c.inventory
}

// Release returns the release to download. The tag is empty when no stage
// needed one resolved.
func (c CompileContext) Release() release.Release {
	return c.release
}

// WithRelease returns a new CompileContext with the release set.
func (c CompileContext) WithRelease(r release.Release) CompileContext {
	c.release = r
	return c
}

// Supports reports whether the host distro has the capability.
func (c CompileContext) Supports(capability host.Capability) bool {
	return c.host.Supports(capability)
}
