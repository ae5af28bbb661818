package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

func TestForumFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tags"); got != "story" {
			t.Errorf("tags = %q, want story", got)
		}
		fmt.Fprint(w, `{"hits":[
			{"objectID":"101","title":"New RAG benchmark","url":"https://example.com/rag","points":120,"num_comments":33,"created_at_i":1749900000},
			{"objectID":"102","title":"Ask HN: agents?","url":"","points":80,"num_comments":10,"created_at_i":1749900000}
		]}`)
	}))
	defer srv.Close()

	f := NewForum([]string{"RAG"}, 50, true, zap.NewNop())
	f.apiURL = srv.URL

	records, err := f.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0].RawScore != 120 {
		t.Errorf("raw_score = %d, want 120", records[0].RawScore)
	}
	if records[0].SourceType != news.SourceForum {
		t.Errorf("source type = %s", records[0].SourceType)
	}
	if records[0].ExtraInt("comments") != 33 {
		t.Errorf("comments = %d, want 33", records[0].ExtraInt("comments"))
	}
	// Story without an external URL falls back to its HN item page.
	if records[1].URL != "https://news.ycombinator.com/item?id=102" {
		t.Errorf("fallback url = %q", records[1].URL)
	}
}

func TestForumFetchDeduplicatesAcrossKeywords(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"hits":[{"objectID":"7","title":"Same story","url":"https://example.com/s","points":90,"created_at_i":1749900000}]}`)
	}))
	defer srv.Close()

	f := NewForum([]string{"LLM", "GPT"}, 50, true, zap.NewNop())
	f.apiURL = srv.URL

	records, err := f.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected one query per keyword, got %d", calls.Load())
	}
	if len(records) != 1 {
		t.Errorf("story returned by both keywords must appear once, got %d", len(records))
	}
}

func TestForumQueryFailureIsolated(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"hits":[{"objectID":"8","title":"Survivor","url":"https://example.com/ok","points":60,"created_at_i":1749900000}]}`)
	}))
	defer srv.Close()

	f := NewForum([]string{"first", "second"}, 50, true, zap.NewNop())
	f.apiURL = srv.URL

	records, err := f.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Survivor" {
		t.Errorf("expected records from the surviving keyword, got %v", records)
	}
}
