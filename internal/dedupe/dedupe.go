// Package dedupe removes records already persisted in a previous run or
// duplicated within a batch, keyed by normalized URL.
package dedupe

import (
	"strings"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// NormalizeURL canonicalizes a URL for identity comparison: trailing
// slashes stripped, scheme forced to https, everything lower-cased.
func NormalizeURL(raw string) string {
	u := strings.TrimRight(raw, "/")
	u = strings.Replace(u, "http://", "https://", 1)
	return strings.ToLower(u)
}

// Deduplicate keeps the first occurrence of each normalized URL,
// treating knownURLs as pre-seeded exclusions. Input order is preserved.
func Deduplicate(records []news.Record, knownURLs []string) []news.Record {
	seen := make(map[string]struct{}, len(knownURLs)+len(records))
	for _, u := range knownURLs {
		seen[NormalizeURL(u)] = struct{}{}
	}

	out := make([]news.Record, 0, len(records))
	for _, r := range records {
		n := NormalizeURL(r.URL)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, r)
	}
	return out
}
