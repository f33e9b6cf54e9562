package gh

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultRawBaseURL = "https://raw.githubusercontent.com"

// RawClient fetches file contents from raw.githubusercontent.com.
// These are plain CDN downloads, not API calls, so they are issued
// unauthenticated and are not subject to the API rate-limit headers.
type RawClient struct {
	baseURL string
	http    *retryablehttp.Client
}

// NewRawClient returns a client for the public raw-content host.
// baseURL overrides the host for tests; empty selects the default.
func NewRawClient(baseURL string) *RawClient {
	if baseURL == "" {
		baseURL = defaultRawBaseURL
	}
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.RetryMax = 2
	c.HTTPClient.Timeout = time.Minute
	return &RawClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    c,
	}
}

// FetchFile returns the contents of path on ref, or nil when the file
// does not exist (or any non-2xx response). It only errors on transport
// failures that survive the client's own retries.
func (c *RawClient) FetchFile(ctx context.Context, fullRepo, ref, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, fullRepo, ref, path)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, nil
	}
	return io.ReadAll(res.Body)
}
