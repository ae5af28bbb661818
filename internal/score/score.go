// Package score computes the composite 0–100 relevance score. The model
// is deliberately additive over fixed lookup tables so a human can audit
// any score by inspecting its five terms.
package score

import (
	"math"
	"sort"
	"time"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

var sourceWeights = map[news.SourceType]float64{
	news.SourceGitHub: 25,
	news.SourceRSS:    30,
	news.SourcePaper:  22,
	news.SourceForum:  18,
}

var categoryWeights = map[news.Category]float64{
	news.CategoryLLM:       25,
	news.CategoryFramework: 22,
	news.CategoryPaper:     20,
	news.CategoryRAG:       18,
	news.CategoryAgent:     18,
	news.CategoryWorkflow:  15,
	news.CategoryOther:     8,
}

const (
	defaultSourceWeight   = 10
	defaultCategoryWeight = 8
	breakingBonus         = 15
	maxScore              = 100.0
)

// Breakdown shows how each component contributed to the final score.
type Breakdown struct {
	Source   float64
	Category float64
	Breaking float64
	Heat     float64
	Recency  float64
	Final    float64
}

// Score returns a copy of records with the score field populated, each
// recomputed from scratch against the given evaluation time.
func Score(records []news.Record, now time.Time) []news.Record {
	out := make([]news.Record, len(records))
	copy(out, records)
	for i := range out {
		out[i].Score = Compute(out[i], now).Final
	}
	return out
}

// Compute evaluates the scoring formula for a single record.
func Compute(r news.Record, now time.Time) Breakdown {
	b := Breakdown{
		Source:   sourceWeight(r.SourceType),
		Category: categoryWeight(r.Category),
		Heat:     heatScore(r),
		Recency:  recencyScore(r.PublishedAt, now),
	}
	if r.IsBreakingChange {
		b.Breaking = breakingBonus
	}
	raw := b.Source + b.Category + b.Breaking + b.Heat + b.Recency
	b.Final = math.Min(math.Round(raw*10)/10, maxScore)
	return b
}

// SortByScore orders records by score descending. Ties keep their prior
// relative order.
func SortByScore(records []news.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
}

func sourceWeight(st news.SourceType) float64 {
	if w, ok := sourceWeights[st]; ok {
		return w
	}
	return defaultSourceWeight
}

func categoryWeight(cat news.Category) float64 {
	if w, ok := categoryWeights[cat]; ok {
		return w
	}
	return defaultCategoryWeight
}

// heatScore normalizes the source-native popularity signal to 0–25.
func heatScore(r news.Record) float64 {
	switch r.SourceType {
	case news.SourceForum:
		return math.Min(float64(r.RawScore)/500*25, 25)
	case news.SourcePaper:
		return math.Min(float64(r.ExtraInt("stars"))/1000*25, 25)
	case news.SourceGitHub:
		if stars := r.ExtraInt("stars"); stars > 0 {
			return math.Min(float64(stars)/100000*25, 25)
		}
		return 10 // no star data, assume middling heat
	default:
		return 10 // rss carries no popularity signal
	}
}

// recencyScore is a step function on record age, 0–20.
func recencyScore(published, now time.Time) float64 {
	hours := now.Sub(published).Hours()
	switch {
	case hours <= 24:
		return 20
	case hours <= 48:
		return 15
	case hours <= 7*24:
		return 10
	case hours <= 30*24:
		return 5
	default:
		return 2
	}
}
