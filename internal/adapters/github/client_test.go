package github_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixgeelhaar/okd4prov/internal/adapters/github"
	"github.com/felixgeelhaar/okd4prov/internal/domain/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LatestTag(t *testing.T) {
	t.Parallel()

	var method string
	followed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/openshift/okd/releases/latest":
			method = r.Method
			http.Redirect(w, r, "/openshift/okd/releases/tag/v4.15.0", http.StatusFound)
		default:
			followed = true
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	tag, err := github.NewClient(srv.URL + "/openshift/okd/releases/latest").LatestTag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v4.15.0", tag)
	assert.Equal(t, http.MethodHead, method)
	assert.False(t, followed, "redirect must not be followed")

	rel, err := release.New(tag, release.DefaultDownloadBase)
	require.NoError(t, err)
	assert.Equal(t, "openshift-client-linux-v4.15.0.tar.gz", rel.Client.File)
	assert.Equal(t, "openshift-install-linux-v4.15.0.tar.gz", rel.Installer.File)
}

func TestClient_LatestTag_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name:    "no redirect",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
			want:    "want a redirect",
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
			want:    "404",
		},
		{
			name: "redirect without location",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusFound)
			},
			want: "no Location header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := github.NewClient(srv.URL + "/latest").LatestTag(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClient_CustomHTTPClientStillStopsAtRedirect(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/latest" {
			http.Redirect(w, r, "/tag/4.15.0-0.okd-2024-03-10-010116", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := github.NewClient(srv.URL+"/latest", github.WithHTTPClient(srv.Client()))
	tag, err := client.LatestTag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.15.0-0.okd-2024-03-10-010116", tag)
}
