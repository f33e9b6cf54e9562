package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/payload-plugins/catalog/internal/manifest"
	"github.com/payload-plugins/catalog/internal/version"
	"github.com/payload-plugins/catalog/pkg/catalog"
)

// Official plugins without a declared license inherit the monorepo's
// permissive default.
const officialDefaultLicense = "MIT"

// FetchOfficialPlugins enumerates the maintaining organization's
// monorepo: one metadata fetch for the shared repository stats, then
// one manifest fetch per packages/<prefix>* directory. Errors here are
// fatal to the run; the official set is authoritative.
func (p *Pipeline) FetchOfficialPlugins(ctx context.Context) ([]*catalog.Plugin, error) {
	repo, err := p.gh.GetRepository(ctx, p.cfg.OfficialOrg, p.cfg.OfficialRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch official repository: %w", err)
	}
	if repo.License == "" {
		repo.License = officialDefaultLicense
	}

	dirs, err := p.gh.ListSubdirectories(ctx, p.cfg.OfficialOrg, p.cfg.OfficialRepo, "packages", repo.DefaultBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to list official packages: %w", err)
	}

	plugins := make([]*catalog.Plugin, 0, len(dirs))
	for _, dir := range dirs {
		if !strings.HasPrefix(dir, p.cfg.OfficialPluginPrefix) {
			continue
		}
		if len(plugins) > 0 {
			// raw-content fetches are unauthenticated; pace them
			p.clock.Sleep(officialFetchDelay)
		}

		m, fetchErr := manifest.Fetch(ctx, p.raw, *repo, "packages/"+dir)
		if fetchErr != nil {
			p.log.Warnf("failed to fetch manifest of official plugin %s: %v", dir, fetchErr)
		}

		rawVersion := m.ResolvePayloadVersion()
		majors := version.ParseMajors(rawVersion)
		if majors == nil {
			// official plugins track the current release line
			majors = version.Majors{latestPayloadMajor}
		}

		plugin := p.newPlugin(*repo, "official-"+dir, humanize(strings.TrimPrefix(dir, p.cfg.OfficialPluginPrefix)), m, rawVersion, majors)
		plugin.Collection = repo.Name
		plugin.IsOfficial = true
		plugins = append(plugins, plugin)
	}
	return plugins, nil
}
