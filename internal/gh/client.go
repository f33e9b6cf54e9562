// Package gh wraps the GitHub API and raw-content access used by the
// pipeline: topic search, repository metadata, directory listings, and
// unauthenticated file fetches, all behind a retry policy that honors
// GitHub's rate-limit headers.
package gh

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/go-github/v59/github"
	"github.com/sirupsen/logrus"
)

const (
	searchPageSize = 100
	// The search API never returns more than 1000 results in total.
	searchResultCap = 1000

	defaultPageDelay = time.Second
)

// Client issues authenticated (or, without a token, rate-ceiling
// limited) GitHub API requests through a shared retry policy.
type Client struct {
	gh        *github.Client
	retry     *RetryPolicy
	log       *logrus.Logger
	clock     clock.Clock
	pageDelay time.Duration
}

// NewClient wraps ghClient. A nil retry policy selects the default.
func NewClient(ghClient *github.Client, retry *RetryPolicy, log *logrus.Logger) *Client {
	if retry == nil {
		retry = NewRetryPolicy(log)
	}
	return &Client{
		gh:        ghClient,
		retry:     retry,
		log:       log,
		clock:     retry.Clock,
		pageDelay: defaultPageDelay,
	}
}

// SearchPluginRepos pages through all repositories tagged with topic,
// most recently updated first, dropping archived repositories. It stops
// at the search API's 1000-result cap or at the first short page.
func (c *Client) SearchPluginRepos(ctx context.Context, topic string) ([]Repository, error) {
	query := fmt.Sprintf("topic:%s", topic)
	opts := &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{Page: 1, PerPage: searchPageSize},
	}

	repos := make([]Repository, 0)
	for {
		var result *github.RepositoriesSearchResult
		err := c.retry.Do(ctx, fmt.Sprintf("search page %d", opts.Page), func() error {
			res, _, searchErr := c.gh.Search.Repositories(ctx, query, opts)
			if searchErr != nil {
				return searchErr
			}
			result = res
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search repositories: %w", err)
		}

		for _, r := range result.Repositories {
			if r.GetArchived() {
				continue
			}
			repos = append(repos, fromGitHub(r))
		}
		c.log.Infof("fetched search page %d (%d repos so far)", opts.Page, len(repos))

		if len(result.Repositories) < searchPageSize || len(repos) >= searchResultCap {
			break
		}
		opts.Page++
		c.clock.Sleep(c.pageDelay)
	}
	return repos, nil
}

// GetRepository fetches a single repository's metadata.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	var repo *github.Repository
	err := c.retry.Do(ctx, fmt.Sprintf("repo %s/%s", owner, name), func() error {
		r, _, getErr := c.gh.Repositories.Get(ctx, owner, name)
		if getErr != nil {
			return getErr
		}
		repo = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	converted := fromGitHub(repo)
	return &converted, nil
}

// ListSubdirectories returns the names of directory entries under path
// at the given ref. A 404 yields an empty list, not an error.
func (c *Client) ListSubdirectories(ctx context.Context, owner, name, path, ref string) ([]string, error) {
	var entries []*github.RepositoryContent
	err := c.retry.Do(ctx, fmt.Sprintf("contents %s/%s/%s", owner, name, path), func() error {
		_, dir, _, listErr := c.gh.Repositories.GetContents(ctx, owner, name, path, &github.RepositoryContentGetOptions{Ref: ref})
		if listErr != nil {
			return listErr
		}
		entries = dir
		return nil
	})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.GetType() == "dir" {
			dirs = append(dirs, e.GetName())
		}
	}
	return dirs, nil
}
