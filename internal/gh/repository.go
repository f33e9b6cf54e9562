package gh

import (
	"time"

	"github.com/google/go-github/v59/github"
)

// Repository is the validated, immutable view of a GitHub repository
// the pipeline operates on. External API shapes are converted at this
// boundary and never flow past it.
type Repository struct {
	ID            int64
	Name          string
	FullName      string
	Owner         string
	OwnerAvatar   string
	Description   string
	Stars         int
	Forks         int
	OpenIssues    int
	CreatedAt     time.Time
	PushedAt      time.Time
	UpdatedAt     time.Time
	HTMLURL       string
	Topics        []string
	DefaultBranch string
	License       string // SPDX identifier, empty when undeclared
	Archived      bool
}

func fromGitHub(r *github.Repository) Repository {
	repo := Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Owner:         r.GetOwner().GetLogin(),
		OwnerAvatar:   r.GetOwner().GetAvatarURL(),
		Description:   r.GetDescription(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		CreatedAt:     r.GetCreatedAt().Time,
		PushedAt:      r.GetPushedAt().Time,
		UpdatedAt:     r.GetUpdatedAt().Time,
		HTMLURL:       r.GetHTMLURL(),
		Topics:        r.Topics,
		DefaultBranch: r.GetDefaultBranch(),
		License:       r.GetLicense().GetSPDXID(),
		Archived:      r.GetArchived(),
	}
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = "main"
	}
	if repo.Topics == nil {
		repo.Topics = []string{}
	}
	return repo
}
