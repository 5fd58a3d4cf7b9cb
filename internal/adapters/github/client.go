// Package github resolves OKD releases from the project's GitHub release
// page without using the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
)

// DefaultTimeout bounds the latest-release request.
const DefaultTimeout = 30 * time.Second

// Client implements ports.ReleasePort. GitHub answers a request for
// /releases/latest with a redirect to /releases/tag/<tag>; the client reads
// the tag from the Location header instead of following it.
type Client struct {
	latestURL string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its redirect policy is overridden.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// NewClient creates a Client for the given latest-release URL.
func NewClient(latestURL string, opts ...Option) *Client {
	c := &Client{
		latestURL: latestURL,
		http:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// LatestTag returns the tag the latest-release URL redirects to.
func (c *Client) LatestTag(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.latestURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", c.latestURL, err)
	}
	req.Header.Set("User-Agent", "okd4prov")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("resolve latest release: %s returned %s, want a redirect", c.latestURL, resp.Status)
	}
	tag, err := release.TagFromLocation(resp.Header.Get("Location"))
	if err != nil {
		return "", fmt.Errorf("resolve latest release: %w", err)
	}
	return tag, nil
}

var _ ports.ReleasePort = (*Client)(nil)
