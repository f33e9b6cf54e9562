package plugin

import (
	"math"
	"time"

	"github.com/payload-plugins/catalog/pkg/catalog"
)

const maxHealthScore = 100

// ComputeHealthScore derives the 0-100 composite health metric from a
// plugin's repository and registry signals. It is a pure per-record
// function: identical input always yields the identical integer, and no
// other plugin in the set influences the result. Archived repositories
// score 0 regardless of every other signal.
func ComputeHealthScore(p *catalog.Plugin, now time.Time) int {
	if p.IsArchived {
		return 0
	}

	score := 0
	score += recencyScore(now, p.UpdatedAt, [4]int{20, 15, 10, 5})

	if p.Stars > 0 {
		score += logScaleScore(float64(p.Stars), 1000, 15)
	}

	score += issueRatioScore(p.OpenIssues, p.Stars)

	if p.License != nil {
		score += 5
	}

	if stats := p.NPMStats; stats != nil {
		if stats.WeeklyDownloads > 0 {
			score += logScaleScore(float64(stats.WeeklyDownloads), 10000, 20)
		}
		if stats.LastPublish != nil {
			score += recencyScore(now, *stats.LastPublish, [4]int{15, 12, 8, 4})
		}
		score += dependencyScore(stats.Dependencies)
		if stats.UnpackedSize != nil {
			score += sizeScore(*stats.UnpackedSize)
		}
	}

	if p.IsOfficial {
		score += 5
	}

	if score > maxHealthScore {
		return maxHealthScore
	}
	return score
}

func recencyScore(now, t time.Time, buckets [4]int) int {
	days := now.Sub(t).Hours() / 24
	switch {
	case days < 30:
		return buckets[0]
	case days < 90:
		return buckets[1]
	case days < 180:
		return buckets[2]
	case days < 365:
		return buckets[3]
	default:
		return 0
	}
}

func logScaleScore(value, ceiling float64, max int) int {
	ratio := math.Log10(value) / math.Log10(ceiling)
	if ratio > 1 {
		ratio = 1
	}
	return int(math.Round(ratio * float64(max)))
}

func issueRatioScore(openIssues, stars int) int {
	if stars == 0 {
		if openIssues == 0 {
			return 10
		}
		return 0
	}
	ratio := float64(openIssues) / float64(stars)
	switch {
	case ratio < 0.05:
		return 10
	case ratio < 0.1:
		return 7
	case ratio < 0.2:
		return 4
	default:
		return 0
	}
}

func dependencyScore(count int) int {
	switch {
	case count <= 3:
		return 10
	case count <= 8:
		return 7
	case count <= 15:
		return 4
	default:
		return 0
	}
}

func sizeScore(bytes int64) int {
	switch {
	case bytes < 50*1024:
		return 5
	case bytes < 200*1024:
		return 3
	case bytes < 1024*1024:
		return 1
	default:
		return 0
	}
}
