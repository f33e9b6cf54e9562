package plugin

import (
	"context"
	"strings"

	"github.com/payload-plugins/catalog/internal/gh"
)

// Filename casings seen in the wild, most common first.
var readmeFileNames = []string{"README.md", "readme.md", "Readme.md"}

const (
	readmePreviewLimit = 500
	// A natural break point is only used when it leaves a substantial
	// preview; earlier breaks fall back to the hard limit.
	readmeMinBreak = 200
)

// fetchReadmePreview returns a short excerpt of the repository README,
// or the empty string when no known filename variant exists.
func (p *Pipeline) fetchReadmePreview(ctx context.Context, repo gh.Repository) string {
	for _, name := range readmeFileNames {
		body, err := p.raw.FetchFile(ctx, repo.FullName, repo.DefaultBranch, name)
		if err != nil {
			p.log.Warnf("failed to fetch %s of %s: %v", name, repo.FullName, err)
			return ""
		}
		if body != nil {
			return truncatePreview(string(body))
		}
	}
	return ""
}

// truncatePreview cuts text to at most readmePreviewLimit characters,
// preferring the later of the last sentence end and the last paragraph
// break when that point is past readmeMinBreak.
func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) > readmePreviewLimit {
		runes = runes[:readmePreviewLimit]
	}
	slice := string(runes)

	sentenceEnd := strings.LastIndex(slice, ". ")
	paragraphEnd := strings.LastIndex(slice, "\n\n")

	cut := sentenceEnd + 1 // keep the period
	if paragraphEnd > sentenceEnd {
		cut = paragraphEnd
	}
	if cut > readmeMinBreak {
		slice = slice[:cut]
	}
	return strings.TrimSpace(slice)
}
