package filter

import (
	"testing"
	"time"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestFilterBlankTitleOrURL(t *testing.T) {
	records := []news.Record{
		{Title: "", URL: "https://x.com/a", PublishedAt: testNow},
		{Title: "   ", URL: "https://x.com/b", PublishedAt: testNow},
		{Title: "ok", URL: "", PublishedAt: testNow},
		{Title: "ok", URL: "  ", PublishedAt: testNow},
		{Title: "keep", URL: "https://x.com/c", PublishedAt: testNow},
	}

	got := Filter(records, Thresholds{}, testNow)
	if len(got) != 1 || got[0].Title != "keep" {
		t.Errorf("expected only the well-formed record, got %v", got)
	}
}

func TestFilterForumBelowThreshold(t *testing.T) {
	records := []news.Record{{
		Title:       "Hot story",
		URL:         "https://news.ycombinator.com/item?id=1",
		SourceType:  news.SourceForum,
		RawScore:    40,
		PublishedAt: testNow,
	}}

	got := Filter(records, Thresholds{ForumMinScore: 50}, testNow)
	if len(got) != 0 {
		t.Errorf("forum record with raw_score 40 must be rejected at min 50")
	}
}

func TestFilterForumAtThreshold(t *testing.T) {
	records := []news.Record{{
		Title:       "Hot story",
		URL:         "https://news.ycombinator.com/item?id=1",
		SourceType:  news.SourceForum,
		RawScore:    50,
		PublishedAt: testNow,
	}}

	got := Filter(records, Thresholds{ForumMinScore: 50}, testNow)
	if len(got) != 1 {
		t.Errorf("forum record at exactly the threshold must be admitted")
	}
}

func TestFilterThresholdIgnoredForOtherSources(t *testing.T) {
	records := []news.Record{{
		Title:       "Release",
		URL:         "https://github.com/x/y/releases/1",
		SourceType:  news.SourceGitHub,
		RawScore:    0,
		PublishedAt: testNow,
	}}

	got := Filter(records, Thresholds{ForumMinScore: 50}, testNow)
	if len(got) != 1 {
		t.Errorf("raw_score threshold must only apply to forum records")
	}
}

func TestFilterFutureTimestamp(t *testing.T) {
	records := []news.Record{
		{Title: "skewed ok", URL: "https://x.com/a", PublishedAt: testNow.Add(30 * time.Minute)},
		{Title: "too far", URL: "https://x.com/b", PublishedAt: testNow.Add(2 * time.Hour)},
	}

	got := Filter(records, Thresholds{}, testNow)
	if len(got) != 1 || got[0].Title != "skewed ok" {
		t.Errorf("expected 1h clock-skew tolerance, got %v", got)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	records := []news.Record{
		{Title: "1", URL: "https://x.com/1", PublishedAt: testNow},
		{Title: "drop", URL: "", PublishedAt: testNow},
		{Title: "2", URL: "https://x.com/2", PublishedAt: testNow},
		{Title: "3", URL: "https://x.com/3", PublishedAt: testNow},
	}

	got := Filter(records, Thresholds{}, testNow)
	want := []string{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("order changed at %d: got %q", i, got[i].Title)
		}
	}
}

func TestFilterNoHiddenState(t *testing.T) {
	record := news.Record{
		Title:       "story",
		URL:         "https://x.com/a",
		SourceType:  news.SourceForum,
		RawScore:    10,
		PublishedAt: testNow,
	}
	th := Thresholds{ForumMinScore: 50}

	for i := 0; i < 5; i++ {
		if got := Filter([]news.Record{record}, th, testNow); len(got) != 0 {
			t.Fatalf("rejected record must stay rejected on call %d", i)
		}
	}
}
