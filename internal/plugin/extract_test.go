package plugin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/payload-plugins/catalog/internal/config"
	"github.com/payload-plugins/catalog/internal/gh"
	"github.com/payload-plugins/catalog/internal/npm"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newQuietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		PluginTopic:          "payload-plugin",
		OfficialOrg:          "payloadcms",
		OfficialRepo:         "payload",
		OfficialPluginPrefix: "plugin-",
	}
}

// newTestPipeline builds a Pipeline against a mocked GitHub API, a
// local raw-content server serving files, and a local npm registry
// stub.
func newTestPipeline(t *testing.T, ghHTTP *http.Client, rawFiles map[string]string, npmHandler http.HandlerFunc) *Pipeline {
	t.Helper()
	log := newQuietLogger()

	rawServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := rawFiles[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(rawServer.Close)

	if npmHandler == nil {
		npmHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}
	}
	npmServer := httptest.NewServer(npmHandler)
	t.Cleanup(npmServer.Close)

	return New(
		testConfig(),
		log,
		gh.NewClient(github.NewClient(ghHTTP), nil, log),
		gh.NewRawClient(rawServer.URL),
		npm.NewClient(log, npmServer.URL, npmServer.URL),
	)
}

func communityRepo() gh.Repository {
	return gh.Repository{
		ID:            7,
		Name:          "payload-seo-helper",
		FullName:      "jane/payload-seo-helper",
		Owner:         "jane",
		Description:   "SEO helpers for Payload",
		Stars:         42,
		Forks:         3,
		OpenIssues:    1,
		CreatedAt:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		HTMLURL:       "https://github.com/jane/payload-seo-helper",
		Topics:        []string{"payload-plugin"},
		DefaultBranch: "main",
		License:       "MIT",
	}
}

func TestExtractPluginsSinglePackage(t *testing.T) {
	p := newTestPipeline(t, nil, map[string]string{
		"/jane/payload-seo-helper/main/package.json": `{
			"name": "payload-seo-helper",
			"description": "Adds SEO fields",
			"peerDependencies": {"payload": "^3.2.0"}
		}`,
		"/jane/payload-seo-helper/main/README.md": "A plugin. It does SEO things for your Payload site, carefully and well.",
	}, nil)

	plugins := p.ExtractPlugins(context.Background(), communityRepo())
	require.Len(t, plugins, 1)

	plugin := plugins[0]
	require.Equal(t, "7-root", plugin.ID)
	require.Equal(t, "Payload Seo Helper", plugin.Name)
	require.Equal(t, "payload-seo-helper", plugin.PackageName)
	require.Equal(t, "Adds SEO fields", plugin.Description)
	require.Empty(t, plugin.Collection)
	require.False(t, plugin.IsOfficial)
	require.NotNil(t, plugin.PayloadVersion)
	require.Equal(t, "^3.2.0", *plugin.PayloadVersion)
	require.Equal(t, []int{3}, plugin.PayloadVersionMajor)
	require.NotNil(t, plugin.License)
	require.Equal(t, "MIT", *plugin.License)
	require.NotEmpty(t, plugin.ReadmePreview)
	require.Equal(t, 42, plugin.Stars)
}

func TestExtractPluginsNoManifest(t *testing.T) {
	p := newTestPipeline(t, nil, nil, nil)

	plugins := p.ExtractPlugins(context.Background(), communityRepo())
	require.Len(t, plugins, 1, "a repository without a manifest still yields one plugin")

	plugin := plugins[0]
	require.Equal(t, "7-root", plugin.ID)
	require.Nil(t, plugin.PayloadVersion)
	require.Equal(t, []int{0}, plugin.PayloadVersionMajor)
	require.Equal(t, "SEO helpers for Payload", plugin.Description, "falls back to the repository description")
}

func TestExtractPluginsMonorepo(t *testing.T) {
	mockedHTTPClient := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetReposContentsByOwnerByRepoByPath,
			[]*github.RepositoryContent{
				{Type: github.String("dir"), Name: github.String("seo")},
				{Type: github.String("dir"), Name: github.String("forms")},
				{Type: github.String("dir"), Name: github.String("shared-utils")},
				{Type: github.String("file"), Name: github.String("README.md")},
			},
		),
	)
	p := newTestPipeline(t, mockedHTTPClient, map[string]string{
		"/jane/payload-seo-helper/main/package.json": `{
			"name": "seo-helper-monorepo",
			"private": true
		}`,
		"/jane/payload-seo-helper/main/packages/seo/package.json": `{
			"name": "@jane/payload-seo",
			"peerDependencies": {"payload": "^2.0.0"}
		}`,
		"/jane/payload-seo-helper/main/packages/forms/package.json": `{
			"name": "@jane/payload-forms",
			"dependencies": {"payload": "^2.0.0 || ^3.0.0"}
		}`,
		"/jane/payload-seo-helper/main/packages/shared-utils/package.json": `{
			"name": "@jane/shared-utils"
		}`,
	}, nil)

	plugins := p.ExtractPlugins(context.Background(), communityRepo())
	require.Len(t, plugins, 2, "only sub-packages with a resolvable Payload version qualify")

	require.Equal(t, "7-seo", plugins[0].ID)
	require.Equal(t, "@jane/payload-seo", plugins[0].PackageName)
	require.Equal(t, []int{2}, plugins[0].PayloadVersionMajor)
	require.Equal(t, "payload-seo-helper", plugins[0].Collection)
	require.Empty(t, plugins[0].ReadmePreview, "collection members carry no README preview")

	require.Equal(t, "7-forms", plugins[1].ID)
	require.Equal(t, []int{2, 3}, plugins[1].PayloadVersionMajor)
	require.Equal(t, "payload-seo-helper", plugins[1].Collection)

	for _, plugin := range plugins {
		require.Equal(t, 42, plugin.Stars, "all monorepo members share the repository stats")
	}
}

func TestExtractPluginsMonorepoWithoutQualifyingMembers(t *testing.T) {
	mockedHTTPClient := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetReposContentsByOwnerByRepoByPath,
			[]*github.RepositoryContent{
				{Type: github.String("dir"), Name: github.String("utils")},
			},
		),
	)
	p := newTestPipeline(t, mockedHTTPClient, map[string]string{
		"/jane/payload-seo-helper/main/package.json":                `{"name": "not-a-plugin"}`,
		"/jane/payload-seo-helper/main/packages/utils/package.json": `{"name": "utils"}`,
	}, nil)

	plugins := p.ExtractPlugins(context.Background(), communityRepo())
	require.Len(t, plugins, 1, "never zero plugins for a discovered repository")
	require.Equal(t, "7-root", plugins[0].ID)
	require.Equal(t, []int{0}, plugins[0].PayloadVersionMajor)
	require.Equal(t, "not-a-plugin", plugins[0].PackageName)
}

func TestExtractPluginsUnparseableRange(t *testing.T) {
	p := newTestPipeline(t, nil, map[string]string{
		"/jane/payload-seo-helper/main/package.json": `{
			"name": "payload-seo-helper",
			"peerDependencies": {"payload": "workspace:*"}
		}`,
	}, nil)

	plugins := p.ExtractPlugins(context.Background(), communityRepo())
	require.Len(t, plugins, 1)
	require.Equal(t, []int{0}, plugins[0].PayloadVersionMajor, "unparseable ranges degrade to the unknown sentinel")
	require.NotNil(t, plugins[0].PayloadVersion)
	require.Equal(t, "workspace:*", *plugins[0].PayloadVersion)
}
