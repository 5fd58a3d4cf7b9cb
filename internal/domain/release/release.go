// Package release derives OKD installer artifact names and CoreOS PXE
// artifacts from release metadata.
package release

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/mod/semver"
)

// Defaults for the upstream OKD release page.
const (
	DefaultLatestURL    = "https://github.com/openshift/okd/releases/latest"
	DefaultDownloadBase = "https://github.com/openshift/okd/releases/download"
)

// ErrEmptyTag is returned when a release tag cannot be determined.
var ErrEmptyTag = errors.New("release tag is empty")

// Artifact is one downloadable file of a release.
type Artifact struct {
	File string
	URL  string
}

// Release describes the installer and client archives of one OKD build.
type Release struct {
	Tag       string
	Client    Artifact
	Installer Artifact
}

// New builds the artifact names and URLs for tag.
func New(tag, downloadBase string) (Release, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Release{}, ErrEmptyTag
	}
	if downloadBase == "" {
		downloadBase = DefaultDownloadBase
	}
	base := strings.TrimRight(downloadBase, "/")

	clientFile := fmt.Sprintf("openshift-client-linux-%s.tar.gz", tag)
	installFile := fmt.Sprintf("openshift-install-linux-%s.tar.gz", tag)

	return Release{
		Tag: tag,
		Client: Artifact{
			File: clientFile,
			URL:  fmt.Sprintf("%s/%s/%s", base, tag, clientFile),
		},
		Installer: Artifact{
			File: installFile,
			URL:  fmt.Sprintf("%s/%s/%s", base, tag, installFile),
		},
	}, nil
}

// TagFromLocation extracts the release tag from a redirect target such as
// ".../releases/tag/4.15.0-0.okd-2024-03-10-010116".
func TagFromLocation(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("%w: no Location header", ErrEmptyTag)
	}
	p := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		p = u.Path
	}
	tag := LastSegment(p)
	if tag == "" || tag == "latest" {
		return "", fmt.Errorf("%w: cannot derive tag from %q", ErrEmptyTag, location)
	}
	return tag, nil
}

// LastSegment returns the final slash-separated element of a URL or path.
func LastSegment(s string) string {
	if u, err := url.Parse(s); err == nil && u.Scheme != "" {
		s = u.Path
	}
	s = strings.TrimRight(s, "/")
	if s == "" {
		return ""
	}
	return path.Base(s)
}

// IsSemver reports whether tag is a semantic version, with or without a "v" prefix.
func IsSemver(tag string) bool {
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}
	return semver.IsValid(tag)
}
