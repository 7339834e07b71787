// Package cache provides a TTL-bounded response cache for API GETs, with an
// in-memory layer and an optional Redis backend. Its job is deduplicating
// repeated detail fetches within one harvest run, so each entry is the raw
// response body keyed by endpoint and query parameters.
package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response.
type Key struct {
	// Endpoint is the API path, e.g. "/users/octocat/repos".
	Endpoint string

	// Params are the query parameters of the request.
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: gitscout:endpoint:param1=val1:param2=val2
func (k Key) String() string {
	parts := []string{"gitscout"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Params.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}
