package release

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultArchitecture is the stream architecture PXE artifacts are taken from.
const DefaultArchitecture = "x86_64"

// ErrMalformedStream is returned when stream metadata lacks a required key.
var ErrMalformedStream = errors.New("malformed CoreOS stream metadata")

// PXEArtifact is one network-boot file referenced by the stream.
type PXEArtifact struct {
	Location string
	File     string
}

// PXEArtifacts are the kernel, initramfs and rootfs for one architecture.
type PXEArtifacts struct {
	Kernel    PXEArtifact
	Initramfs PXEArtifact
	Rootfs    PXEArtifact
}

type streamArtifact struct {
	Location string `json:"location"`
}

type streamPXE struct {
	Kernel    *streamArtifact `json:"kernel"`
	Initramfs *streamArtifact `json:"initramfs"`
	Rootfs    *streamArtifact `json:"rootfs"`
}

type streamDocument struct {
	Architectures map[string]struct {
		Artifacts map[string]struct {
			Formats map[string]json.RawMessage `json:"formats"`
		} `json:"artifacts"`
	} `json:"architectures"`
}

// ParseStream extracts
// architectures.<arch>.artifacts.metal.formats.pxe.{kernel,initramfs,rootfs}.location
// from the output of "openshift-install coreos print-stream-json".
func ParseStream(data []byte, arch string) (PXEArtifacts, error) {
	if arch == "" {
		arch = DefaultArchitecture
	}

	var doc streamDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return PXEArtifacts{}, fmt.Errorf("%w: %w", ErrMalformedStream, err)
	}

	a, ok := doc.Architectures[arch]
	if !ok {
		return PXEArtifacts{}, fmt.Errorf("%w: architecture %q not found", ErrMalformedStream, arch)
	}
	metal, ok := a.Artifacts["metal"]
	if !ok {
		return PXEArtifacts{}, fmt.Errorf("%w: %s has no metal artifacts", ErrMalformedStream, arch)
	}
	raw, ok := metal.Formats["pxe"]
	if !ok {
		return PXEArtifacts{}, fmt.Errorf("%w: %s metal artifacts have no pxe format", ErrMalformedStream, arch)
	}

	var pxe streamPXE
	if err := json.Unmarshal(raw, &pxe); err != nil {
		return PXEArtifacts{}, fmt.Errorf("%w: pxe format: %w", ErrMalformedStream, err)
	}

	kernel, err := artifact("kernel", pxe.Kernel)
	if err != nil {
		return PXEArtifacts{}, err
	}
	initramfs, err := artifact("initramfs", pxe.Initramfs)
	if err != nil {
		return PXEArtifacts{}, err
	}
	rootfs, err := artifact("rootfs", pxe.Rootfs)
	if err != nil {
		return PXEArtifacts{}, err
	}

	return PXEArtifacts{Kernel: kernel, Initramfs: initramfs, Rootfs: rootfs}, nil
}

func artifact(name string, a *streamArtifact) (PXEArtifact, error) {
	if a == nil || a.Location == "" {
		return PXEArtifact{}, fmt.Errorf("%w: pxe %s has no location", ErrMalformedStream, name)
	}
	file := LastSegment(a.Location)
	if file == "" {
		return PXEArtifact{}, fmt.Errorf("%w: pxe %s location %q has no file name", ErrMalformedStream, name, a.Location)
	}
	return PXEArtifact{Location: a.Location, File: file}, nil
}
