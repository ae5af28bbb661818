// Package classify assigns a category, breaking-change flag, and tags to
// records via keyword matching over title and content.
package classify

import (
	"strings"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// KeywordTable maps a category to its lowercase trigger keywords.
type KeywordTable map[news.Category][]string

// CategoryPriority is the resolution order when several keyword groups
// match the same record.
var CategoryPriority = []news.Category{
	news.CategoryFramework,
	news.CategoryLLM,
	news.CategoryRAG,
	news.CategoryAgent,
	news.CategoryWorkflow,
}

// breakingKeywords flag incompatible or deprecating changes. Matched as
// case-insensitive substrings of title + content.
var breakingKeywords = []string{
	"breaking change",
	"breaking:",
	"breaking -",
	"deprecated",
	"deprecation",
	"removed in",
	"removal of",
	"migration guide",
	"migration required",
	"incompatible",
	"backward incompatible",
	"no longer supported",
}

// Classify returns a copy of records with category, breaking-change flag,
// and tags populated. A category supplied by the producing source (the
// paper feed, a configured RSS feed) is authoritative and kept; only
// records arriving unclassified are resolved against the keyword table.
func Classify(records []news.Record, table KeywordTable) []news.Record {
	out := make([]news.Record, len(records))
	copy(out, records)

	for i := range out {
		text := strings.ToLower(out[i].Title + " " + out[i].Content)
		if out[i].Category == "" || out[i].Category == news.CategoryOther {
			out[i].Category = detectCategory(text, table)
		}
		out[i].IsBreakingChange = IsBreaking(text)
		out[i].Tags = buildTags(text, out[i].Category, table)
	}
	return out
}

// IsBreaking reports whether lowered text mentions a breaking change.
func IsBreaking(lowered string) bool {
	for _, kw := range breakingKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func detectCategory(lowered string, table KeywordTable) news.Category {
	for _, cat := range CategoryPriority {
		for _, kw := range table[cat] {
			if strings.Contains(lowered, kw) {
				return cat
			}
		}
	}
	return news.CategoryOther
}

// buildTags starts with the resolved category, then appends the first
// matching keyword from each group, capped at news.MaxTags.
func buildTags(lowered string, cat news.Category, table KeywordTable) []string {
	tags := []string{string(cat)}
	for _, group := range CategoryPriority {
		if len(tags) >= news.MaxTags {
			break
		}
		for _, kw := range table[group] {
			if strings.Contains(lowered, kw) && !containsTag(tags, kw) {
				tags = append(tags, kw)
				break
			}
		}
	}
	return tags
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
