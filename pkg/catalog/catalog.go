// Package catalog defines the persisted plugin dataset shapes. The
// generated snapshot is the only contract between the data pipeline and
// the directory website, which serves it statically.
package catalog

import (
	"time"
)

// Plugin is one entry of the generated dataset. All repository-derived
// fields (stars, forks, timestamps) are shared by every plugin that
// originates from the same monorepo.
type Plugin struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PackageName  string   `json:"packageName,omitempty"`
	Collection   string   `json:"collection,omitempty"`
	Description  string   `json:"description"`
	RepoURL      string   `json:"repoUrl"`
	Author       string   `json:"author"`
	AuthorAvatar string   `json:"authorAvatar,omitempty"`
	Topics       []string `json:"topics"`

	IsOfficial bool `json:"isOfficial"`
	IsArchived bool `json:"isArchived"`

	Stars      int       `json:"stars"`
	Forks      int       `json:"forks"`
	OpenIssues int       `json:"openIssues"`
	UpdatedAt  time.Time `json:"updatedAt"`
	CreatedAt  time.Time `json:"createdAt"`

	// PayloadVersion is the raw dependency range from the manifest,
	// nil when no manifest declared a Payload dependency.
	PayloadVersion *string `json:"payloadVersion"`
	// PayloadVersionMajor is never empty; [0] means the targeted major
	// version could not be determined.
	PayloadVersionMajor []int `json:"payloadVersionMajor"`

	License       *string   `json:"license"`
	ReadmePreview string    `json:"readmePreview,omitempty"`
	NPMStats      *NPMStats `json:"npmStats,omitempty"`
	HealthScore   *int      `json:"healthScore,omitempty"`
}

// NPMStats carries the registry signals attached during enrichment.
type NPMStats struct {
	WeeklyDownloads  int        `json:"weeklyDownloads"`
	MonthlyDownloads int        `json:"monthlyDownloads"`
	LatestVersion    string     `json:"latestVersion"`
	UnpackedSize     *int64     `json:"unpackedSize"`
	LastPublish      *time.Time `json:"lastPublish"`
	Dependencies     int        `json:"dependencies"`
}

// PluginsData is the snapshot envelope, regenerated wholesale on every
// pipeline run. Plugins are sorted by star count descending.
type PluginsData struct {
	Generated time.Time `json:"generated"`
	Total     int       `json:"total"`
	Plugins   []*Plugin `json:"plugins"`
}
