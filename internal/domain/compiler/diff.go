package compiler

import "fmt"

// DiffType represents the kind of change a step will make.
type DiffType string

const (
	// DiffTypeAdd indicates a resource will be created (package, directory, download).
	DiffTypeAdd DiffType = "add"
	// DiffTypeModify indicates an existing resource will be overwritten.
	DiffTypeModify DiffType = "modify"
	// DiffTypeRun indicates a command will be run whose effect is not a single file.
	DiffTypeRun DiffType = "run"
	// DiffTypeNone indicates no change is needed.
	DiffTypeNone DiffType = "none"
)

// String returns the string representation of the diff type.
func (d DiffType) String() string {
	return string(d)
}

// Diff represents a planned change from a step.
type Diff struct {
	diffType DiffType
	resource string
	name     string
	oldValue string
	newValue string
}

// NewDiff creates a new Diff.
func NewDiff(diffType DiffType, resource, name, oldValue, newValue string) Diff {
	return Diff{
		diffType: diffType,
		resource: resource,
		name:     name,
		oldValue: oldValue,
		newValue: newValue,
	}
}

// Type returns the diff type.
func (d Diff) Type() DiffType {
	return d.diffType
}

// Resource returns the resource type (e.g., "package", "file", "service").
func (d Diff) Resource() string {
	return d.resource
}

// Name returns the resource name.
func (d Diff) Name() string {
	return d.name
}

// OldValue returns the previous value, if known.
func (d Diff) OldValue() string {
	return d.oldValue
}

// NewValue returns the desired value.
func (d Diff) NewValue() string {
	return d.newValue
}

// Summary returns a human-readable summary of the diff.
func (d Diff) Summary() string {
	switch d.diffType {
	case DiffTypeAdd:
		if d.newValue == "" {
			return fmt.Sprintf("+ %s %s", d.resource, d.name)
		}
		return fmt.Sprintf("+ %s %s (%s)", d.resource, d.name, d.newValue)
	case DiffTypeModify:
		if d.oldValue == "" {
			return fmt.Sprintf("~ %s %s", d.resource, d.name)
		}
		return fmt.Sprintf("~ %s %s (%s -> %s)", d.resource, d.name, d.oldValue, d.newValue)
	case DiffTypeRun:
		return fmt.Sprintf("! %s %s: %s", d.resource, d.name, d.newValue)
	case DiffTypeNone:
		return fmt.Sprintf("  %s %s", d.resource, d.name)
	}
	return fmt.Sprintf("  %s %s", d.resource, d.name)
}

// IsEmpty returns true if this diff represents no meaningful change.
func (d Diff) IsEmpty() bool {
	return (d.diffType == DiffTypeNone || d.diffType == "") && d.resource == "" && d.name == ""
}
