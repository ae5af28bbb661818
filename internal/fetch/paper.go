package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// PaperFeed is one academic feed (arXiv category RSS).
type PaperFeed struct {
	Name string
	URL  string
}

// PaperFetcher collects recent papers. Records it emits carry the pinned
// "paper" category, which the classifier never overrides.
type PaperFetcher struct {
	feeds   []PaperFeed
	topN    int
	parser  *gofeed.Parser
	log     *zap.Logger
	enabled bool
}

func NewPapers(feeds []PaperFeed, topN int, enabled bool, log *zap.Logger) *PaperFetcher {
	if topN <= 0 {
		topN = 20
	}
	return &PaperFetcher{
		feeds:   feeds,
		topN:    topN,
		parser:  gofeed.NewParser(),
		log:     log,
		enabled: enabled && len(feeds) > 0,
	}
}

func (f *PaperFetcher) Name() string  { return "Papers" }
func (f *PaperFetcher) Enabled() bool { return f.enabled }

func (f *PaperFetcher) Fetch(ctx context.Context, since time.Time) ([]news.Record, error) {
	perFeed := f.topN / len(f.feeds)
	if perFeed < 1 {
		perFeed = 1
	}

	var records []news.Record
	seen := make(map[string]struct{})

	for _, feedCfg := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(feedCfg.URL, ctx)
		if err != nil {
			f.log.Warn("paper feed fetch failed",
				zap.String("feed", feedCfg.Name), zap.Error(err))
			continue
		}

		taken := 0
		for _, item := range feed.Items {
			if taken >= perFeed {
				break
			}
			if item.Link == "" {
				continue
			}
			if _, dup := seen[item.Link]; dup {
				continue
			}
			pub, ok := itemTime(item)
			if !ok || !pub.After(since) {
				continue
			}
			seen[item.Link] = struct{}{}

			records = append(records, news.Record{
				Title:       strings.TrimSpace(item.Title),
				URL:         item.Link,
				Source:      feedCfg.Name,
				SourceType:  news.SourcePaper,
				Category:    news.CategoryPaper,
				PublishedAt: pub,
				Content:     news.Truncate(news.StripHTML(item.Description), 500),
				Extra:       map[string]any{},
			})
			taken++
		}
	}

	if len(records) > f.topN {
		records = records[:f.topN]
	}
	return records, nil
}
