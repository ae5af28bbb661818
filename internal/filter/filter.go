// Package filter drops malformed or sub-threshold records before scoring.
package filter

import (
	"strings"
	"time"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// Thresholds configures the rejection rules.
type Thresholds struct {
	// ForumMinScore is the minimum native score (upvotes) a forum record
	// must carry to be admitted.
	ForumMinScore int
}

// futureSkew tolerates clock drift in publish timestamps.
const futureSkew = time.Hour

// Filter returns the records that pass every rule, preserving relative
// order. The rules are independent; a record is admitted only if it
// fails none of them.
func Filter(records []news.Record, th Thresholds, now time.Time) []news.Record {
	out := make([]news.Record, 0, len(records))
	for _, r := range records {
		if passes(r, th, now) {
			out = append(out, r)
		}
	}
	return out
}

func passes(r news.Record, th Thresholds, now time.Time) bool {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.URL) == "" {
		return false
	}
	if r.SourceType == news.SourceForum && r.RawScore < th.ForumMinScore {
		return false
	}
	if r.PublishedAt.After(now.Add(futureSkew)) {
		return false
	}
	return true
}
