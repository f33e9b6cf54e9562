package manifest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/payload-plugins/catalog/internal/gh"
	"github.com/stretchr/testify/require"
)

func testRepo() gh.Repository {
	return gh.Repository{FullName: "owner/repo", DefaultBranch: "main"}
}

func newManifestServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
}

func TestFetchRootManifest(t *testing.T) {
	ts := newManifestServer(t, map[string]string{
		"/owner/repo/main/package.json": `{"name":"payload-plugin-test","peerDependencies":{"payload":"^2.0.0"}}`,
	})
	defer ts.Close()

	m, err := Fetch(context.Background(), gh.NewRawClient(ts.URL), testRepo(), "")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "payload-plugin-test", m.Name)
	require.Equal(t, "^2.0.0", m.ResolvePayloadVersion())
}

func TestFetchSubPackageManifest(t *testing.T) {
	ts := newManifestServer(t, map[string]string{
		"/owner/repo/main/packages/seo/package.json": `{"name":"@owner/seo","dependencies":{"payload":"^3.0.0"}}`,
	})
	defer ts.Close()

	m, err := Fetch(context.Background(), gh.NewRawClient(ts.URL), testRepo(), "packages/seo")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "@owner/seo", m.Name)
}

func TestFetchMissingManifest(t *testing.T) {
	ts := newManifestServer(t, nil)
	defer ts.Close()

	m, err := Fetch(context.Background(), gh.NewRawClient(ts.URL), testRepo(), "")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestFetchMalformedManifest(t *testing.T) {
	ts := newManifestServer(t, map[string]string{
		"/owner/repo/main/package.json": `{not json`,
	})
	defer ts.Close()

	m, err := Fetch(context.Background(), gh.NewRawClient(ts.URL), testRepo(), "")
	require.NoError(t, err)
	require.Nil(t, m, "malformed JSON degrades to no manifest")
}

func TestResolvePayloadVersionPrecedence(t *testing.T) {
	m := &Manifest{
		Dependencies:     map[string]string{"payload": "^1.0.0"},
		PeerDependencies: map[string]string{"payload": "^2.0.0"},
		DevDependencies:  map[string]string{"payload": "^3.0.0"},
	}
	require.Equal(t, "^2.0.0", m.ResolvePayloadVersion(), "peer dependencies win")

	m.PeerDependencies = nil
	require.Equal(t, "^1.0.0", m.ResolvePayloadVersion(), "then runtime dependencies")

	m.Dependencies = nil
	require.Equal(t, "^3.0.0", m.ResolvePayloadVersion(), "then dev dependencies")

	m.DevDependencies = nil
	require.Empty(t, m.ResolvePayloadVersion())

	var nilManifest *Manifest
	require.Empty(t, nilManifest.ResolvePayloadVersion())
}
