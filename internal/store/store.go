// Package store persists records as JSON files: a rolling snapshot with
// bounded retention (latest.json), permanent monthly archive shards
// (archive/YYYY-MM.json), and a last-run marker driving incremental
// fetch windows.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
	"github.com/vivid-lct/ai-trend-monitor/internal/score"
)

// Snapshot is the rolling point-in-time view persisted as latest.json,
// items sorted by score descending.
type Snapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Total       int           `json:"total"`
	Items       []news.Record `json:"items"`
}

// Archive is one append-only monthly shard. It only ever grows.
type Archive struct {
	Month       string        `json:"month"`
	LastUpdated time.Time     `json:"last_updated"`
	Total       int           `json:"total"`
	Items       []news.Record `json:"items"`
}

type lastRun struct {
	LastRunAt time.Time `json:"last_run_at"`
}

// Store is the durable record repository. It assumes it is the sole
// writer during a run; concurrent invocations are an operational
// precondition violation, not something it defends against.
type Store struct {
	dataDir string
	log     *zap.Logger
}

func New(dataDir string, log *zap.Logger) *Store {
	return &Store{dataDir: dataDir, log: log}
}

func (s *Store) latestPath() string  { return filepath.Join(s.dataDir, "latest.json") }
func (s *Store) lastRunPath() string { return filepath.Join(s.dataDir, "last_run.json") }
func (s *Store) archivePath(month string) string {
	return filepath.Join(s.dataDir, "archive", month+".json")
}

// IsColdStart reports whether no rolling snapshot exists yet.
func (s *Store) IsColdStart() bool {
	_, err := os.Stat(s.latestPath())
	return os.IsNotExist(err)
}

// LastRunTime returns the previous run's timestamp, if one was recorded.
func (s *Store) LastRunTime() (time.Time, bool) {
	data, err := os.ReadFile(s.lastRunPath())
	if err != nil {
		return time.Time{}, false
	}
	var lr lastRun
	if err := json.Unmarshal(data, &lr); err != nil || lr.LastRunAt.IsZero() {
		s.log.Warn("unreadable last-run marker, treating as first run", zap.Error(err))
		return time.Time{}, false
	}
	return lr.LastRunAt, true
}

// ExistingURLs returns every URL currently in the rolling snapshot, used
// to seed cross-run deduplication.
func (s *Store) ExistingURLs() []string {
	snap := s.loadSnapshot()
	urls := make([]string, 0, len(snap.Items))
	for _, r := range snap.Items {
		urls = append(urls, r.URL)
	}
	return urls
}

// Save merges new records into the rolling snapshot — prune items older
// than keepDays, append records not already present by URL, re-sort by
// score descending, persist atomically — and independently appends every
// genuinely new record to the current month's archive shard.
func (s *Store) Save(records []news.Record, keepDays int, now time.Time) error {
	if err := os.MkdirAll(filepath.Join(s.dataDir, "archive"), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	merged := s.mergeWithExisting(records, now, keepDays)
	snap := Snapshot{GeneratedAt: now, Total: len(merged), Items: merged}
	if err := writeJSON(s.latestPath(), snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	if err := s.appendToArchive(records, now); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}

// LoadLatest returns the rolling snapshot's items, best first.
func (s *Store) LoadLatest() []news.Record {
	return s.loadSnapshot().Items
}

// UpdateLastRun records now as the start of the next incremental window.
func (s *Store) UpdateLastRun(now time.Time) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := writeJSON(s.lastRunPath(), lastRun{LastRunAt: now}); err != nil {
		return fmt.Errorf("writing last-run marker: %w", err)
	}
	return nil
}

// loadSnapshot treats a missing or corrupt snapshot as empty; the
// pipeline self-heals by rebuilding from new fetches.
func (s *Store) loadSnapshot() Snapshot {
	data, err := os.ReadFile(s.latestPath())
	if err != nil {
		return Snapshot{}
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("corrupt rolling snapshot, starting empty", zap.Error(err))
		return Snapshot{}
	}
	return snap
}

func (s *Store) mergeWithExisting(records []news.Record, now time.Time, keepDays int) []news.Record {
	cutoff := now.AddDate(0, 0, -keepDays)

	existing := s.loadSnapshot().Items
	kept := make([]news.Record, 0, len(existing)+len(records))
	urls := make(map[string]struct{}, len(existing)+len(records))
	for _, r := range existing {
		if r.PublishedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, r)
		urls[r.URL] = struct{}{}
	}

	for _, r := range records {
		if _, dup := urls[r.URL]; dup {
			continue
		}
		kept = append(kept, r)
		urls[r.URL] = struct{}{}
	}

	score.SortByScore(kept)
	return kept
}

func (s *Store) appendToArchive(records []news.Record, now time.Time) error {
	month := now.Format("2006-01")
	path := s.archivePath(month)

	arch := Archive{Month: month}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &arch); err != nil {
			s.log.Warn("corrupt archive shard, starting empty",
				zap.String("month", month), zap.Error(err))
			arch = Archive{Month: month}
		}
	}

	urls := make(map[string]struct{}, len(arch.Items))
	for _, r := range arch.Items {
		urls[r.URL] = struct{}{}
	}
	for _, r := range records {
		if _, dup := urls[r.URL]; dup {
			continue
		}
		arch.Items = append(arch.Items, r)
		urls[r.URL] = struct{}{}
	}

	arch.LastUpdated = now
	arch.Total = len(arch.Items)
	return writeJSON(path, arch)
}

// writeJSON persists atomically: write a sibling temp file, then rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
