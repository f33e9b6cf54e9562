package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/payload-plugins/catalog/internal/batch"
	"github.com/payload-plugins/catalog/internal/gh"
	"github.com/payload-plugins/catalog/internal/manifest"
	"github.com/payload-plugins/catalog/internal/version"
	"github.com/payload-plugins/catalog/pkg/catalog"
)

// ExtractPlugins turns one discovered repository into its plugin
// records. A repository always yields at least one record: when nothing
// resolvable is found it degrades to a single "unknown version" entry
// rather than disappearing from the catalog. Failures are logged and
// confined to this repository.
func (p *Pipeline) ExtractPlugins(ctx context.Context, repo gh.Repository) []*catalog.Plugin {
	rootManifest, err := manifest.Fetch(ctx, p.raw, repo, "")
	if err != nil {
		p.log.Warnf("failed to fetch root manifest of %s: %v", repo.FullName, err)
		rootManifest = nil
	}

	if rootManifest == nil {
		return []*catalog.Plugin{p.rootPlugin(ctx, repo, nil, "", version.Unknown)}
	}

	if rawVersion := rootManifest.ResolvePayloadVersion(); rawVersion != "" {
		majors := version.ParseMajors(rawVersion)
		if majors == nil {
			majors = version.Unknown
		}
		return []*catalog.Plugin{p.rootPlugin(ctx, repo, rootManifest, rawVersion, majors)}
	}

	// A root manifest without a Payload dependency suggests a monorepo
	// with plugins under packages/.
	members, err := p.extractMonorepoMembers(ctx, repo)
	if err != nil {
		p.log.Warnf("failed to extract monorepo packages of %s: %v", repo.FullName, err)
	}
	if len(members) > 0 {
		return members
	}

	// Neither a resolvable root version nor qualifying sub-packages:
	// keep the repository as a single unknown-version plugin.
	return []*catalog.Plugin{p.rootPlugin(ctx, repo, rootManifest, "", version.Unknown)}
}

func (p *Pipeline) rootPlugin(ctx context.Context, repo gh.Repository, m *manifest.Manifest, rawVersion string, majors version.Majors) *catalog.Plugin {
	plugin := p.newPlugin(repo, fmt.Sprintf("%d-root", repo.ID), humanize(repo.Name), m, rawVersion, majors)
	plugin.ReadmePreview = p.fetchReadmePreview(ctx, repo)
	return plugin
}

func (p *Pipeline) extractMonorepoMembers(ctx context.Context, repo gh.Repository) ([]*catalog.Plugin, error) {
	owner, name := splitFullName(repo.FullName)
	dirs, err := p.gh.ListSubdirectories(ctx, owner, name, "packages", repo.DefaultBranch)
	if err != nil {
		return nil, err
	}

	members := make([]*catalog.Plugin, len(dirs))
	err = batch.Run(ctx, len(dirs), subPackageBatchSize, 0, p.clock, func(i int) error {
		dir := dirs[i]
		m, fetchErr := manifest.Fetch(ctx, p.raw, repo, "packages/"+dir)
		if fetchErr != nil {
			p.log.Warnf("failed to fetch manifest of %s/packages/%s: %v", repo.FullName, dir, fetchErr)
			return nil
		}
		rawVersion := m.ResolvePayloadVersion()
		if rawVersion == "" {
			return nil
		}
		majors := version.ParseMajors(rawVersion)
		if majors == nil {
			majors = version.Unknown
		}
		member := p.newPlugin(repo, fmt.Sprintf("%d-%s", repo.ID, dir), humanize(dir), m, rawVersion, majors)
		member.Collection = repo.Name
		members[i] = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	plugins := make([]*catalog.Plugin, 0, len(members))
	for _, m := range members {
		if m != nil {
			plugins = append(plugins, m)
		}
	}
	return plugins, nil
}

func splitFullName(fullName string) (string, string) {
	owner, name, found := strings.Cut(fullName, "/")
	if !found {
		return "", ""
	}
	return owner, name
}
