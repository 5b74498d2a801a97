package gateway

import (
	"net/http"
	"sort"
	"strings"
)

// =============================================================================
// Route Table
// =============================================================================

// Rule maps a path prefix to an upstream.
type Rule struct {
	// Prefix is the path prefix to match, e.g. "/api/tts/"
	Prefix string

	// Upstream is the upstream name the prefix routes to
	Upstream string

	// StripPrefix removes the matched prefix from the forwarded path.
	// Used for upstreams that serve from the root (ComfyUI).
	StripPrefix bool
}

// Table resolves request paths against an ordered set of prefix rules.
// Longest prefix wins regardless of insertion order.
type Table struct {
	rules     []Rule
	upstreams map[string]Upstream
}

// Upstream describes a routable backend service.
type Upstream struct {
	// Name identifies the upstream ("tts", "comfy")
	Name string

	// URL is the base URL requests are forwarded to
	URL string

	// MaxInFlight caps concurrent generation requests; 0 means unlimited
	MaxInFlight int
}

// NewTable builds a route table. Rules are matched longest-prefix-first.
func NewTable(rules []Rule, upstreams []Upstream) *Table {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	byName := make(map[string]Upstream, len(upstreams))
	for _, u := range upstreams {
		byName[u.Name] = u
	}

	return &Table{rules: sorted, upstreams: byName}
}

// Upstreams returns the registered upstreams.
func (t *Table) Upstreams() []Upstream {
	out := make([]Upstream, 0, len(t.upstreams))
	for _, u := range t.upstreams {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve matches a request against the table and returns the proxy target.
// Returns a RouteError when no rule matches or the upstream is unknown.
func (t *Table) Resolve(method, path string) (Target, error) {
	for _, rule := range t.rules {
		if !matchPrefix(path, rule.Prefix) {
			continue
		}

		upstream, ok := t.upstreams[rule.Upstream]
		if !ok {
			return Target{}, NewUnavailableError(path)
		}

		forwardPath := path
		if rule.StripPrefix {
			forwardPath = strings.TrimPrefix(path, strings.TrimSuffix(rule.Prefix, "/"))
			if forwardPath == "" {
				forwardPath = "/"
			}
		}

		return Target{
			Upstream: upstream.Name,
			URL:      upstream.URL,
			Path:     forwardPath,
			Limited:  isGenerative(method, forwardPath),
		}, nil
	}

	return Target{}, NewNotFoundError(path)
}

// matchPrefix reports whether path falls under prefix. A prefix ending in
// "/" also matches the bare path without the trailing slash.
func matchPrefix(path, prefix string) bool {
	if strings.HasPrefix(path, prefix) {
		return true
	}
	return strings.TrimSuffix(prefix, "/") == path
}

// isGenerative reports whether a request occupies a GPU generation slot.
// Only mutating requests count; reads (audio download, voice listing,
// queue inspection) pass through unlimited.
func isGenerative(method, path string) bool {
	if method != http.MethodPost {
		return false
	}
	switch {
	case strings.HasPrefix(path, "/api/tts/generate"):
		return true
	case strings.HasPrefix(path, "/prompt"):
		return true
	}
	return false
}
