package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/classify"
	"github.com/vivid-lct/ai-trend-monitor/internal/fetch"
	"github.com/vivid-lct/ai-trend-monitor/internal/filter"
	"github.com/vivid-lct/ai-trend-monitor/internal/news"
	"github.com/vivid-lct/ai-trend-monitor/internal/store"
)

var frozenNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	name    string
	records []news.Record
	err     error
	since   time.Time
	calls   int
}

func (f *fakeSource) Name() string  { return f.name }
func (f *fakeSource) Enabled() bool { return true }
func (f *fakeSource) Fetch(ctx context.Context, since time.Time) ([]news.Record, error) {
	f.calls++
	f.since = since
	return f.records, f.err
}

func keywords() classify.KeywordTable {
	return classify.KeywordTable{
		news.CategoryLLM:       {"gpt"},
		news.CategoryFramework: {"pytorch"},
	}
}

func sourceRecords() []news.Record {
	return []news.Record{
		{
			Title:       "PyTorch 3.0 released with breaking change notes",
			URL:         "https://acme.dev/pytorch-3",
			Source:      "Acme Blog",
			SourceType:  news.SourceRSS,
			PublishedAt: frozenNow.Add(-6 * time.Hour),
			Content:     "The release removes deprecated APIs.",
		},
		{
			Title:       "GPT variant benchmark",
			URL:         "https://acme.dev/pytorch-3/", // trailing-slash duplicate
			Source:      "Acme Blog",
			SourceType:  news.SourceRSS,
			PublishedAt: frozenNow.Add(-7 * time.Hour),
		},
		{
			Title:       "Quiet forum thread",
			URL:         "https://news.ycombinator.com/item?id=1",
			Source:      "Hacker News",
			SourceType:  news.SourceForum,
			RawScore:    10,
			PublishedAt: frozenNow.Add(-3 * time.Hour),
		},
		{
			Title:       "Hot gpt thread",
			URL:         "https://news.ycombinator.com/item?id=2",
			Source:      "Hacker News",
			SourceType:  news.SourceForum,
			RawScore:    400,
			PublishedAt: frozenNow.Add(-2 * time.Hour),
		},
	}
}

func testOptions(t *testing.T, fetchers ...fetch.Fetcher) (Options, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir(), zap.NewNop())
	return Options{
		Store:      st,
		Fetchers:   fetchers,
		Keywords:   keywords(),
		Thresholds: filter.Thresholds{ForumMinScore: 50},
		Log:        zap.NewNop(),
		Now:        func() time.Time { return frozenNow },
	}, st
}

func TestRunEndToEnd(t *testing.T) {
	src := &fakeSource{name: "fake", records: sourceRecords()}
	opts, st := testOptions(t, src)

	sum, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if sum.Fetched != 4 {
		t.Errorf("fetched = %d, want 4", sum.Fetched)
	}
	// One URL-normalized duplicate and one below-threshold forum item drop.
	if sum.Kept != 2 {
		t.Fatalf("kept = %d, want 2", sum.Kept)
	}
	if sum.Breaking != 1 {
		t.Errorf("breaking = %d, want 1", sum.Breaking)
	}
	if sum.SourceErrors != 0 {
		t.Errorf("source errors = %d", sum.SourceErrors)
	}

	for i := 1; i < len(sum.Records); i++ {
		if sum.Records[i].Score > sum.Records[i-1].Score {
			t.Errorf("records not sorted by score at %d", i)
		}
	}
	for _, r := range sum.Records {
		if r.Category == "" {
			t.Errorf("record %q left unclassified", r.Title)
		}
		if r.Score <= 0 {
			t.Errorf("record %q left unscored", r.Title)
		}
	}

	saved := st.LoadLatest()
	if len(saved) != sum.Kept {
		t.Errorf("persisted %d records, summary says %d", len(saved), sum.Kept)
	}
	if last, ok := st.LastRunTime(); !ok || !last.Equal(frozenNow) {
		t.Errorf("last run = %v, %v", last, ok)
	}
}

func TestRunColdStartWindow(t *testing.T) {
	src := &fakeSource{name: "fake"}
	opts, _ := testOptions(t, src)
	opts.ColdStartDays = 3

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := frozenNow.AddDate(0, 0, -3)
	if !src.since.Equal(want) {
		t.Errorf("cold-start since = %v, want %v", src.since, want)
	}
}

func TestRunUsesLastRunAsWindow(t *testing.T) {
	src := &fakeSource{name: "fake"}
	opts, st := testOptions(t, src)

	earlier := frozenNow.Add(-36 * time.Hour)
	if err := st.UpdateLastRun(earlier); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !src.since.Equal(earlier) {
		t.Errorf("since = %v, want the recorded last run %v", src.since, earlier)
	}
}

func TestRunSecondRunSkipsKnownURLs(t *testing.T) {
	src := &fakeSource{name: "fake", records: sourceRecords()}
	opts, _ := testOptions(t, src)

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	sum, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Kept != 0 {
		t.Errorf("second run kept %d new records, want 0", sum.Kept)
	}
}

func TestRunSourceFailureDoesNotAbort(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.New("timeout")}
	healthy := &fakeSource{name: "healthy", records: sourceRecords()[:1]}
	opts, _ := testOptions(t, broken, healthy)

	sum, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.SourceErrors != 1 {
		t.Errorf("source errors = %d, want 1", sum.SourceErrors)
	}
	if sum.Kept != 1 {
		t.Errorf("kept = %d, want the healthy source's record", sum.Kept)
	}
}
