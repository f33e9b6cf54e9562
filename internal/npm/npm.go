// Package npm fetches download counts and package metadata from the
// npm registry to enrich plugin records.
package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/payload-plugins/catalog/internal/batch"
	"github.com/payload-plugins/catalog/pkg/catalog"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRegistryURL  = "https://registry.npmjs.org"
	defaultDownloadsURL = "https://api.npmjs.org"

	enrichBatchSize  = 10
	enrichBatchDelay = time.Second
)

// npm package name grammar for scoped and unscoped packages.
var packageNameRe = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// Manifests scaffolded from templates ship stub names that would
// resolve to unrelated registry packages.
var genericNames = map[string]bool{
	"test":      true,
	"app":       true,
	"dev":       true,
	"undefined": true,
	"package":   true,
	"plugin":    true,
	"example":   true,
}

// IsValidPackageName reports whether name looks like a real published
// package: it must match the registry naming grammar and not be a
// generic placeholder.
func IsValidPackageName(name string) bool {
	if name == "" || len(name) > 214 {
		return false
	}
	if genericNames[strings.ToLower(name)] {
		return false
	}
	return packageNameRe.MatchString(name)
}

// Client talks to the npm registry and its downloads API.
type Client struct {
	registryURL  string
	downloadsURL string
	http         *retryablehttp.Client
	log          *logrus.Logger
	clock        clock.Clock

	batchSize  int
	batchDelay time.Duration
}

// NewClient returns a client for the public npm endpoints. The URLs are
// overridable for tests; empty strings select the defaults.
func NewClient(log *logrus.Logger, registryURL, downloadsURL string) *Client {
	if registryURL == "" {
		registryURL = defaultRegistryURL
	}
	if downloadsURL == "" {
		downloadsURL = defaultDownloadsURL
	}
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = 2
	httpClient.HTTPClient.Timeout = time.Minute
	return &Client{
		registryURL:  strings.TrimSuffix(registryURL, "/"),
		downloadsURL: strings.TrimSuffix(downloadsURL, "/"),
		http:         httpClient,
		log:          log,
		clock:        clock.New(),
		batchSize:    enrichBatchSize,
		batchDelay:   enrichBatchDelay,
	}
}

type packageDocument struct {
	DistTags map[string]string         `json:"dist-tags"`
	Versions map[string]packageVersion `json:"versions"`
	Time     map[string]time.Time      `json:"time"`
}

type packageVersion struct {
	Dependencies map[string]string `json:"dependencies"`
	Dist         struct {
		UnpackedSize int64 `json:"unpackedSize"`
	} `json:"dist"`
}

type downloadsPoint struct {
	Downloads int `json:"downloads"`
}

// getJSON decodes a 2xx response into v. The bool result is false for
// 404 (package not listed) without an error.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) (bool, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return false, fmt.Errorf("unexpected status %d from %s", res.StatusCode, rawURL)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}
	return true, nil
}

func (c *Client) downloads(ctx context.Context, period, name string) (int, error) {
	var point downloadsPoint
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/downloads/point/%s/%s", c.downloadsURL, period, name), &point)
	if err != nil || !found {
		return 0, err
	}
	return point.Downloads, nil
}

// Stats issues the metadata and weekly/monthly download queries for one
// package in parallel. It returns nil when the package has no registry
// listing; download failures degrade to zero counts.
func (c *Client) Stats(ctx context.Context, name string) (*catalog.NPMStats, error) {
	var (
		doc             packageDocument
		found           bool
		weekly, monthly int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		found, err = c.getJSON(gctx, fmt.Sprintf("%s/%s", c.registryURL, url.PathEscape(name)), &doc)
		return err
	})
	g.Go(func() error {
		n, err := c.downloads(gctx, "last-week", name)
		if err != nil {
			c.log.Debugf("weekly downloads unavailable for %s: %v", name, err)
			return nil
		}
		weekly = n
		return nil
	})
	g.Go(func() error {
		n, err := c.downloads(gctx, "last-month", name)
		if err != nil {
			c.log.Debugf("monthly downloads unavailable for %s: %v", name, err)
			return nil
		}
		monthly = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	latest := doc.DistTags["latest"]
	stats := &catalog.NPMStats{
		WeeklyDownloads:  weekly,
		MonthlyDownloads: monthly,
		LatestVersion:    latest,
	}
	if v, ok := doc.Versions[latest]; ok {
		stats.Dependencies = len(v.Dependencies)
		if v.Dist.UnpackedSize > 0 {
			size := v.Dist.UnpackedSize
			stats.UnpackedSize = &size
		}
	}
	if publish, ok := doc.Time[latest]; ok {
		stats.LastPublish = &publish
	}
	return stats, nil
}

// Enrich attaches registry stats in place to every plugin with a valid,
// non-generic package name. Plugins are processed in fixed-size batches
// with a pause between batches; a failed lookup leaves that plugin
// unenriched and never aborts the batch.
func (c *Client) Enrich(ctx context.Context, plugins []*catalog.Plugin) error {
	candidates := make([]*catalog.Plugin, 0, len(plugins))
	for _, p := range plugins {
		if IsValidPackageName(p.PackageName) {
			candidates = append(candidates, p)
		}
	}
	c.log.Infof("enriching %d of %d plugins with npm stats", len(candidates), len(plugins))

	return batch.Run(ctx, len(candidates), c.batchSize, c.batchDelay, c.clock, func(i int) error {
		p := candidates[i]
		stats, err := c.Stats(ctx, p.PackageName)
		if err != nil {
			c.log.Warnf("npm enrichment failed for %s: %v", p.PackageName, err)
			return nil
		}
		if stats == nil {
			c.log.Debugf("package %s has no npm listing", p.PackageName)
			return nil
		}
		p.NPMStats = stats
		return nil
	})
}
