// Package pipeline orchestrates one ingestion run:
// fetch → dedupe → classify → filter → score → sort → persist.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/classify"
	"github.com/vivid-lct/ai-trend-monitor/internal/dedupe"
	"github.com/vivid-lct/ai-trend-monitor/internal/fetch"
	"github.com/vivid-lct/ai-trend-monitor/internal/filter"
	"github.com/vivid-lct/ai-trend-monitor/internal/news"
	"github.com/vivid-lct/ai-trend-monitor/internal/score"
	"github.com/vivid-lct/ai-trend-monitor/internal/store"
)

// Options wires the collaborators for one run. Now is injectable so the
// whole run is reproducible under test with a frozen clock.
type Options struct {
	Store         *store.Store
	Fetchers      []fetch.Fetcher
	Keywords      classify.KeywordTable
	Thresholds    filter.Thresholds
	KeepDays      int
	ColdStartDays int
	Log           *zap.Logger
	Now           func() time.Time
}

// Summary reports what one run produced.
type Summary struct {
	Fetched      int
	Kept         int
	Breaking     int
	SourceErrors int
	Records      []news.Record
}

// Run executes the full ingestion pipeline and persists the result.
// Individual source failures degrade to zero items from that source;
// only persistence failures abort the run.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	now := time.Now().UTC
	if opts.Now != nil {
		now = opts.Now
	}
	start := now()

	since, ok := opts.Store.LastRunTime()
	if !ok {
		days := opts.ColdStartDays
		if days <= 0 {
			days = 7
		}
		since = start.AddDate(0, 0, -days)
		opts.Log.Info("cold start, using fixed window", zap.Int("days", days))
	}

	result := fetch.All(ctx, opts.Fetchers, since, opts.Log)
	fetched := len(result.Records)

	records := dedupe.Deduplicate(result.Records, opts.Store.ExistingURLs())
	records = classify.Classify(records, opts.Keywords)
	records = filter.Filter(records, opts.Thresholds, start)
	records = score.Score(records, start)
	score.SortByScore(records)

	keepDays := opts.KeepDays
	if keepDays <= 0 {
		keepDays = 30
	}
	if err := opts.Store.Save(records, keepDays, start); err != nil {
		return nil, fmt.Errorf("saving records: %w", err)
	}
	if err := opts.Store.UpdateLastRun(start); err != nil {
		return nil, fmt.Errorf("updating last-run marker: %w", err)
	}

	breaking := 0
	for _, r := range records {
		if r.IsBreakingChange {
			breaking++
		}
	}

	opts.Log.Info("pipeline finished",
		zap.Int("fetched", fetched),
		zap.Int("kept", len(records)),
		zap.Int("breaking", breaking),
		zap.Int("source_errors", len(result.Errors)))

	return &Summary{
		Fetched:      fetched,
		Kept:         len(records),
		Breaking:     breaking,
		SourceErrors: len(result.Errors),
		Records:      records,
	}, nil
}
