// Package vector maintains an embedding-keyed index of record
// projections (title + content) and serves top-k cosine-similarity
// queries. Indexing is incremental and idempotent by URL identity, so
// retrieval freshness is decoupled from the scoring pipeline's cadence.
package vector

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/vivid-lct/ai-trend-monitor/internal/dedupe"
	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// Embedder turns free text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Hit is one search result: the stored metadata projection plus the
// cosine similarity against the query.
type Hit struct {
	Title       string
	URL         string
	Source      string
	Category    news.Category
	PublishedAt time.Time
	Score       float64
	Content     string
	Similarity  float64
}

// Index is a SQLite-backed vector store. Vectors are little-endian
// float32 blobs; similarity is computed in process, which is plenty for
// a single-writer index of a few thousand records.
type Index struct {
	readDB   *sql.DB
	writeDB  *sql.DB
	embedder Embedder
	log      *zap.Logger
}

func Open(dbPath string, embedder Embedder, log *zap.Logger) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	ix := &Index{readDB: readDB, writeDB: writeDB, embedder: embedder, log: log}
	if err := ix.init(); err != nil {
		ix.Close()
		return nil, err
	}
	return ix, nil
}

func (ix *Index) init() error {
	_, err := ix.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			url          TEXT NOT NULL,
			source       TEXT NOT NULL,
			category     TEXT NOT NULL,
			published_at TEXT NOT NULL,
			score        REAL NOT NULL,
			content      TEXT NOT NULL DEFAULT '',
			embedding    BLOB NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (ix *Index) Close() error {
	var firstErr error
	for _, db := range []*sql.DB{ix.readDB, ix.writeDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RecordID derives the stable index identity for a URL.
func RecordID(url string) string {
	sum := sha256.Sum256([]byte(dedupe.NormalizeURL(url)))
	return fmt.Sprintf("%x", sum)
}

// Add indexes every record not already present. A failed embedding for
// one item logs a warning and skips it without reducing the others'
// chances. Returns the count actually inserted.
func (ix *Index) Add(ctx context.Context, records []news.Record) (int, error) {
	existing, err := ix.existingIDs(ctx)
	if err != nil {
		return 0, err
	}

	stmt, err := ix.writeDB.PrepareContext(ctx, `
		INSERT INTO records (id, title, url, source, category, published_at, score, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	added := 0
	for _, r := range records {
		id := RecordID(r.URL)
		if _, ok := existing[id]; ok {
			continue
		}

		vec, err := ix.embedder.Embed(ctx, r.Title+"\n"+r.Content)
		if err != nil {
			ix.log.Warn("skipping record, embedding failed",
				zap.String("title", news.Truncate(r.Title, 60)), zap.Error(err))
			continue
		}

		_, err = stmt.ExecContext(ctx, id, r.Title, r.URL, r.Source, string(r.Category),
			r.PublishedAt.UTC().Format(time.RFC3339), r.Score, r.Content, encodeVector(vec))
		if err != nil {
			return added, fmt.Errorf("inserting record %s: %w", id, err)
		}
		existing[id] = struct{}{}
		added++
	}
	return added, nil
}

// Search returns up to min(topK, size) nearest neighbors, most similar
// first. An empty index or a failed query embedding yields an empty
// result, not an error.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	count, err := ix.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 || topK <= 0 {
		return nil, nil
	}

	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		ix.log.Warn("query embedding failed", zap.Error(err))
		return nil, nil
	}

	rows, err := ix.readDB.QueryContext(ctx, `
		SELECT title, url, source, category, published_at, score, content, embedding
		FROM records
	`)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h      Hit
			pubStr string
			cat    string
			blob   []byte
		)
		if err := rows.Scan(&h.Title, &h.URL, &h.Source, &cat, &pubStr, &h.Score, &h.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		h.Category = news.Category(cat)
		h.PublishedAt, _ = time.Parse(time.RFC3339, pubStr)
		h.Similarity = cosine(qvec, decodeVector(blob))
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Count returns the number of indexed records.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := ix.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

func (ix *Index) existingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := ix.readDB.QueryContext(ctx, "SELECT id FROM records")
	if err != nil {
		return nil, fmt.Errorf("listing ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}

// cosine returns similarity in [-1, 1]; mismatched or zero-magnitude
// vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
