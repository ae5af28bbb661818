package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// ForumFetcher collects high-scoring stories from the Hacker News
// Algolia search API, one query per configured keyword.
type ForumFetcher struct {
	keywords []string
	minScore int
	apiURL   string
	client   *http.Client
	log      *zap.Logger
	enabled  bool
}

func NewForum(keywords []string, minScore int, enabled bool, log *zap.Logger) *ForumFetcher {
	return &ForumFetcher{
		keywords: keywords,
		minScore: minScore,
		apiURL:   "https://hn.algolia.com/api/v1/search",
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
		enabled:  enabled && len(keywords) > 0,
	}
}

func (f *ForumFetcher) Name() string  { return "Hacker News" }
func (f *ForumFetcher) Enabled() bool { return f.enabled }

type algoliaResponse struct {
	Hits []struct {
		ObjectID    string `json:"objectID"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		Points      int    `json:"points"`
		NumComments int    `json:"num_comments"`
		CreatedAtI  int64  `json:"created_at_i"`
	} `json:"hits"`
}

func (f *ForumFetcher) Fetch(ctx context.Context, since time.Time) ([]news.Record, error) {
	var records []news.Record
	seen := make(map[string]struct{})

	for _, keyword := range f.keywords {
		resp, err := f.search(ctx, keyword, since)
		if err != nil {
			f.log.Warn("forum query failed",
				zap.String("keyword", keyword), zap.Error(err))
			continue
		}

		for _, hit := range resp.Hits {
			if hit.ObjectID == "" {
				continue
			}
			if _, dup := seen[hit.ObjectID]; dup {
				continue
			}
			seen[hit.ObjectID] = struct{}{}

			storyURL := hit.URL
			if storyURL == "" {
				storyURL = "https://news.ycombinator.com/item?id=" + hit.ObjectID
			}

			records = append(records, news.Record{
				Title:       hit.Title,
				URL:         storyURL,
				Source:      "Hacker News",
				SourceType:  news.SourceForum,
				Category:    news.CategoryOther,
				PublishedAt: time.Unix(hit.CreatedAtI, 0).UTC(),
				RawScore:    hit.Points,
				Extra: map[string]any{
					"hn_id":    hit.ObjectID,
					"comments": hit.NumComments,
				},
			})
		}
	}
	return records, nil
}

func (f *ForumFetcher) search(ctx context.Context, keyword string, since time.Time) (*algoliaResponse, error) {
	filters := fmt.Sprintf("points>=%d", f.minScore)
	if !since.IsZero() {
		filters += fmt.Sprintf(",created_at_i>=%d", since.Unix())
	}

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("tags", "story")
	params.Set("numericFilters", filters)
	params.Set("hitsPerPage", "15")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("algolia API: %s", resp.Status)
	}

	var out algoliaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
