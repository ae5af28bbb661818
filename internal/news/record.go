package news

import "time"

// SourceType identifies the kind of producer a record came from.
type SourceType string

const (
	SourceGitHub SourceType = "github"
	SourceRSS    SourceType = "rss"
	SourceForum  SourceType = "forum"
	SourcePaper  SourceType = "paper"
)

// Category is the topic bucket a record is classified into.
type Category string

const (
	CategoryFramework Category = "framework"
	CategoryLLM       Category = "llm"
	CategoryRAG       Category = "rag"
	CategoryAgent     Category = "agent"
	CategoryWorkflow  Category = "workflow"
	CategoryPaper     Category = "paper"
	CategoryOther     Category = "other"
)

// MaxTags caps the number of tags attached to a record.
const MaxTags = 5

// Record is the canonical unit flowing through every pipeline stage:
// one release, blog post, forum story, or paper. The URL (after
// normalization) is its sole identity; Score is always recomputed from
// the other fields, never adjusted incrementally.
type Record struct {
	Title            string         `json:"title"`
	URL              string         `json:"url"`
	Source           string         `json:"source"`
	SourceType       SourceType     `json:"source_type"`
	Category         Category       `json:"category"`
	PublishedAt      time.Time      `json:"published_at"`
	Content          string         `json:"content"`
	Score            float64        `json:"score"`
	IsBreakingChange bool           `json:"is_breaking_change"`
	Tags             []string       `json:"tags"`
	RawScore         int            `json:"raw_score"`
	Extra            map[string]any `json:"extra"`
}

// ExtraInt reads an integer value from the Extra bag. JSON round-trips
// turn numbers into float64, so both shapes are accepted.
func (r Record) ExtraInt(key string) int {
	switch v := r.Extra[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
