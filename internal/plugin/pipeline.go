// Package plugin implements the catalog data pipeline: community
// repository extraction, official monorepo enumeration, README
// previews, health scoring, and the final aggregation into the
// snapshot dataset.
package plugin

import (
	"context"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/payload-plugins/catalog/internal/batch"
	"github.com/payload-plugins/catalog/internal/config"
	"github.com/payload-plugins/catalog/internal/gh"
	"github.com/payload-plugins/catalog/internal/manifest"
	"github.com/payload-plugins/catalog/internal/npm"
	"github.com/payload-plugins/catalog/pkg/catalog"
	"github.com/sirupsen/logrus"
)

const (
	// Payload's current major line; official plugins without a
	// resolvable version default to it.
	latestPayloadMajor = 3

	subPackageBatchSize = 5
	repoBatchSize       = 10
	repoBatchDelay      = time.Second

	officialFetchDelay = 200 * time.Millisecond

	descriptionPlaceholder = "No description provided"
)

// Pipeline wires the clients a catalog run needs. Construct it once per
// run; it holds no mutable state between runs.
type Pipeline struct {
	cfg   *config.PipelineConfig
	log   *logrus.Logger
	gh    *gh.Client
	raw   *gh.RawClient
	npm   *npm.Client
	clock clock.Clock
}

func New(cfg *config.PipelineConfig, log *logrus.Logger, ghClient *gh.Client, rawClient *gh.RawClient, npmClient *npm.Client) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		log:   log,
		gh:    ghClient,
		raw:   rawClient,
		npm:   npmClient,
		clock: clock.New(),
	}
}

// Run executes one full pipeline pass and returns the snapshot to
// persist. Discovery and official enumeration failures are fatal;
// everything per-repository or per-plugin degrades and is logged.
func (p *Pipeline) Run(ctx context.Context) (*catalog.PluginsData, error) {
	p.log.Infof("fetching official plugins from %s/%s", p.cfg.OfficialOrg, p.cfg.OfficialRepo)
	official, err := p.FetchOfficialPlugins(ctx)
	if err != nil {
		return nil, err
	}
	p.log.Infof("found %d official plugins", len(official))

	p.log.Infof("searching repositories tagged %q", p.cfg.PluginTopic)
	repos, err := p.gh.SearchPluginRepos(ctx, p.cfg.PluginTopic)
	if err != nil {
		return nil, err
	}
	p.log.Infof("found %d community repositories", len(repos))

	community := make([][]*catalog.Plugin, len(repos))
	err = batch.Run(ctx, len(repos), repoBatchSize, repoBatchDelay, p.clock, func(i int) error {
		community[i] = p.ExtractPlugins(ctx, repos[i])
		return nil
	})
	if err != nil {
		return nil, err
	}

	flat := make([]*catalog.Plugin, 0, len(repos))
	for _, plugins := range community {
		flat = append(flat, plugins...)
	}
	p.log.Infof("extracted %d community plugins", len(flat))

	merged := Merge(official, flat)

	if err := p.npm.Enrich(ctx, merged); err != nil {
		return nil, err
	}

	now := p.clock.Now().UTC()
	for _, plugin := range merged {
		score := ComputeHealthScore(plugin, now)
		plugin.HealthScore = &score
	}

	SortByStars(merged)
	return &catalog.PluginsData{
		Generated: now,
		Total:     len(merged),
		Plugins:   merged,
	}, nil
}

// newPlugin assembles a record from the owning repository and its
// resolved manifest data. Every plugin from one monorepo shares the
// repository-derived fields.
func (p *Pipeline) newPlugin(repo gh.Repository, id, displayName string, m *manifest.Manifest, rawVersion string, majors []int) *catalog.Plugin {
	plugin := &catalog.Plugin{
		ID:                  id,
		Name:                displayName,
		Description:         description(m, repo),
		RepoURL:             repo.HTMLURL,
		Author:              repo.Owner,
		AuthorAvatar:        repo.OwnerAvatar,
		Topics:              repo.Topics,
		IsOfficial:          strings.EqualFold(repo.Owner, p.cfg.OfficialOrg),
		IsArchived:          repo.Archived,
		Stars:               repo.Stars,
		Forks:               repo.Forks,
		OpenIssues:          repo.OpenIssues,
		UpdatedAt:           repo.UpdatedAt,
		CreatedAt:           repo.CreatedAt,
		PayloadVersionMajor: majors,
	}
	if m != nil {
		plugin.PackageName = m.Name
	}
	if rawVersion != "" {
		plugin.PayloadVersion = &rawVersion
	}
	if repo.License != "" {
		license := repo.License
		plugin.License = &license
	}
	return plugin
}

func description(m *manifest.Manifest, repo gh.Repository) string {
	if m != nil && m.Description != "" {
		return m.Description
	}
	if repo.Description != "" {
		return repo.Description
	}
	return descriptionPlaceholder
}

// humanize turns "form-builder" or "nested_docs" into "Form Builder"
// and "Nested Docs".
func humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
