package plugin

import (
	"sort"
	"strings"

	"github.com/payload-plugins/catalog/pkg/catalog"
)

// Merge combines the official and community sets. A community plugin
// whose package name matches an official one (case-insensitively) is a
// duplicate discovery of the same package; the official record wins
// regardless of differing ids.
func Merge(official, community []*catalog.Plugin) []*catalog.Plugin {
	officialNames := make(map[string]bool, len(official))
	for _, p := range official {
		if p.PackageName != "" {
			officialNames[strings.ToLower(p.PackageName)] = true
		}
	}

	merged := make([]*catalog.Plugin, 0, len(official)+len(community))
	merged = append(merged, official...)
	for _, p := range community {
		if p.PackageName != "" && officialNames[strings.ToLower(p.PackageName)] {
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// SortByStars orders plugins by star count descending, keeping the
// existing order among ties.
func SortByStars(plugins []*catalog.Plugin) {
	sort.SliceStable(plugins, func(i, j int) bool {
		return plugins[i].Stars > plugins[j].Stars
	})
}
