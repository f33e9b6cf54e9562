// Package manifest retrieves and inspects package.json files to
// resolve the Payload version range a package declares.
package manifest

import (
	"context"
	"encoding/json"
	"path"

	"github.com/payload-plugins/catalog/internal/gh"
)

// PayloadPackage is the npm package name of the tracked framework.
const PayloadPackage = "payload"

// Manifest is the subset of package.json the pipeline cares about.
type Manifest struct {
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Dependencies     map[string]string `json:"dependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
}

// Fetch retrieves and parses {subPath/}package.json from the
// repository's default branch. It returns nil on a missing file, any
// non-2xx response, or malformed JSON; it never errors on those. Only
// transport failures that survive the raw client's retries propagate.
func Fetch(ctx context.Context, raw *gh.RawClient, repo gh.Repository, subPath string) (*Manifest, error) {
	filePath := "package.json"
	if subPath != "" {
		filePath = path.Join(subPath, "package.json")
	}
	body, err := raw.FetchFile(ctx, repo.FullName, repo.DefaultBranch, filePath)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, nil
	}
	return &m, nil
}

// ResolvePayloadVersion returns the declared Payload version range,
// preferring peer dependencies over runtime over dev. Empty string
// means the manifest does not depend on Payload at all.
func (m *Manifest) ResolvePayloadVersion() string {
	if m == nil {
		return ""
	}
	for _, deps := range []map[string]string{m.PeerDependencies, m.Dependencies, m.DevDependencies} {
		if v, ok := deps[PayloadPackage]; ok && v != "" {
			return v
		}
	}
	return ""
}
