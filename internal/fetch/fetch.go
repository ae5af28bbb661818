// Package fetch collects records from the configured external sources.
// Every source implements Fetcher and returns the common record shape;
// a single source's failure never aborts the round.
package fetch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// Fetcher produces records from one external source.
type Fetcher interface {
	Name() string
	Enabled() bool
	Fetch(ctx context.Context, since time.Time) ([]news.Record, error)
}

// Result aggregates one fetch round.
type Result struct {
	Records []news.Record
	Errors  []error
}

// All runs every enabled fetcher concurrently. Failed sources are logged
// and collected in Result.Errors; the surviving sources' records are
// returned regardless.
func All(ctx context.Context, fetchers []Fetcher, since time.Time, log *zap.Logger) Result {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result Result
	)

	for _, f := range fetchers {
		if !f.Enabled() {
			continue
		}
		wg.Add(1)
		go func(f Fetcher) {
			defer wg.Done()
			records, err := f.Fetch(ctx, since)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("source fetch failed",
					zap.String("source", f.Name()), zap.Error(err))
				result.Errors = append(result.Errors, err)
				return
			}
			log.Info("source fetched",
				zap.String("source", f.Name()), zap.Int("records", len(records)))
			result.Records = append(result.Records, records...)
		}(f)
	}

	wg.Wait()
	return result
}
