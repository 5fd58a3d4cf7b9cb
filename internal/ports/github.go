package ports

import "context"

// ReleasePort resolves OKD release information from the project's release page.
type ReleasePort interface {
	// LatestTag returns the tag of the newest published release.
	LatestTag(ctx context.Context) (string, error)
}

// StaticRelease is a ReleasePort that always returns a pinned tag.
type StaticRelease struct {
	Tag string
}

// LatestTag returns the pinned tag.
func (s StaticRelease) LatestTag(_ context.Context) (string, error) {
	return s.Tag, nil
}

// Ensure StaticRelease implements ReleasePort.
var _ ReleasePort = StaticRelease{}
