package classify

import (
	"reflect"
	"testing"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

func testTable() KeywordTable {
	return KeywordTable{
		news.CategoryFramework: {"langchain", "llamaindex"},
		news.CategoryLLM:       {"gpt", "claude", "large language model"},
		news.CategoryRAG:       {"rag", "retrieval", "embedding"},
		news.CategoryAgent:     {"agent", "mcp"},
		news.CategoryWorkflow:  {"workflow", "orchestration"},
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// Matches both framework and llm keywords; framework comes first in
	// the priority order.
	records := []news.Record{{
		Title:    "LangChain adds GPT support",
		Category: news.CategoryOther,
	}}

	got := Classify(records, testTable())
	if got[0].Category != news.CategoryFramework {
		t.Errorf("expected framework, got %s", got[0].Category)
	}
}

func TestClassifyDefaultsToOther(t *testing.T) {
	records := []news.Record{{Title: "Quarterly report", Category: news.CategoryOther}}

	got := Classify(records, testTable())
	if got[0].Category != news.CategoryOther {
		t.Errorf("expected other, got %s", got[0].Category)
	}
}

func TestClassifyPaperPinned(t *testing.T) {
	records := []news.Record{{
		Title:    "A survey of agent architectures with RAG",
		Category: news.CategoryPaper,
	}}

	got := Classify(records, testTable())
	if got[0].Category != news.CategoryPaper {
		t.Errorf("paper category must not be reclassified, got %s", got[0].Category)
	}
}

func TestClassifySourceCategoryPinned(t *testing.T) {
	// An RSS feed's configured category is authoritative too.
	records := []news.Record{{
		Title:    "LangChain v1.0 ships",
		Category: news.CategoryLLM,
	}}

	got := Classify(records, testTable())
	if got[0].Category != news.CategoryLLM {
		t.Errorf("source-supplied category must be kept, got %s", got[0].Category)
	}
}

func TestClassifyEmptyCategoryResolved(t *testing.T) {
	records := []news.Record{{Title: "New retrieval benchmark"}}

	got := Classify(records, testTable())
	if got[0].Category != news.CategoryRAG {
		t.Errorf("expected rag, got %s", got[0].Category)
	}
}

func TestBreakingChangeDetection(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"v2.0 with BREAKING CHANGE in the config format", true},
		{"Old API deprecated in favor of v2", true},
		{"Python 3.8 no longer supported", true},
		{"Migration required for existing deployments", true},
		{"Small bugfix release", false},
	}
	for _, tt := range tests {
		records := Classify([]news.Record{{Title: tt.title, Category: news.CategoryOther}}, testTable())
		if records[0].IsBreakingChange != tt.want {
			t.Errorf("IsBreakingChange(%q) = %v, want %v", tt.title, records[0].IsBreakingChange, tt.want)
		}
	}
}

func TestTagsStartWithCategory(t *testing.T) {
	records := []news.Record{{
		Title:    "LangChain agent workflow with RAG and GPT",
		Category: news.CategoryOther,
	}}

	got := Classify(records, testTable())
	if len(got[0].Tags) == 0 {
		t.Fatal("expected tags")
	}
	if got[0].Tags[0] != string(got[0].Category) {
		t.Errorf("first tag should be the category, got %q", got[0].Tags[0])
	}
}

func TestTagsCappedAtFive(t *testing.T) {
	records := []news.Record{{
		Title:    "langchain gpt rag agent workflow orchestration embedding",
		Category: news.CategoryOther,
	}}

	got := Classify(records, testTable())
	if len(got[0].Tags) > news.MaxTags {
		t.Errorf("tags exceed cap: %v", got[0].Tags)
	}
}

func TestTagsOneKeywordPerGroup(t *testing.T) {
	// Both rag keywords match, but only the first per group is tagged.
	records := []news.Record{{
		Title:    "rag retrieval deep dive",
		Category: news.CategoryOther,
	}}

	got := Classify(records, testTable())
	want := []string{"rag", "retrieval"}
	if !reflect.DeepEqual(got[0].Tags, want) {
		t.Errorf("tags = %v, want %v", got[0].Tags, want)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	records := []news.Record{{
		Title:   "LangChain agent release",
		Content: "workflow orchestration with claude embedding support",
	}}

	first := Classify(records, testTable())
	for i := 0; i < 10; i++ {
		again := Classify(records, testTable())
		if !reflect.DeepEqual(first[0].Tags, again[0].Tags) {
			t.Fatalf("tags not deterministic: %v vs %v", first[0].Tags, again[0].Tags)
		}
		if first[0].Category != again[0].Category {
			t.Fatalf("category not deterministic")
		}
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	records := []news.Record{{Title: "GPT news"}}
	Classify(records, testTable())
	if records[0].Category != "" {
		t.Errorf("input slice was mutated: %s", records[0].Category)
	}
}
