package host

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// OSReleasePath is where systemd hosts describe their distribution.
const OSReleasePath = "/etc/os-release"

// OSRelease holds the fields of os-release(5) the provisioner uses.
type OSRelease struct {
	ID         string
	IDLike     []string
	Name       string
	VersionID  string
	PrettyName string
}

// ParseOSRelease parses the contents of an os-release file.
func ParseOSRelease(data []byte) (OSRelease, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:       true,
		IgnoreContinuation:        true,
		SkipUnrecognizableLines:   true,
		UnescapeValueDoubleQuotes: true,
	}, data)
	if err != nil {
		return OSRelease{}, fmt.Errorf("parse os-release: %w", err)
	}

	sec := f.Section(ini.DefaultSection)
	rel := OSRelease{
		ID:         sec.Key("ID").String(),
		Name:       sec.Key("NAME").String(),
		VersionID:  sec.Key("VERSION_ID").String(),
		PrettyName: sec.Key("PRETTY_NAME").String(),
	}
	if like := sec.Key("ID_LIKE").String(); like != "" {
		rel.IDLike = strings.Fields(like)
	}

	if rel.ID == "" && rel.Name == "" {
		return OSRelease{}, fmt.Errorf("parse os-release: neither ID nor NAME is set")
	}
	return rel, nil
}

// Major returns the major component of VERSION_ID, or 0 when it is absent.
func (r OSRelease) Major() (int, error) {
	if r.VersionID == "" {
		return 0, nil
	}
	head, _, _ := strings.Cut(r.VersionID, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("invalid VERSION_ID %q: %w", r.VersionID, err)
	}
	return major, nil
}

// Distro classifies the release, preferring ID over NAME.
func (r OSRelease) Distro() (Distro, error) {
	major, err := r.Major()
	if err != nil {
		return DistroOther, err
	}
	if d := Classify(r.ID, major); d != DistroOther {
		return d, nil
	}
	return Classify(r.Name, major), nil
}
