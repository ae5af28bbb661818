package fetch

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// RSSFeed is one configured blog feed. Its category, when set, is
// authoritative and skips keyword classification.
type RSSFeed struct {
	Name     string
	URL      string
	Category news.Category
}

// RSSFetcher collects posts from official blogs and changelogs.
type RSSFetcher struct {
	feeds   []RSSFeed
	parser  *gofeed.Parser
	log     *zap.Logger
	enabled bool
}

func NewRSS(feeds []RSSFeed, enabled bool, log *zap.Logger) *RSSFetcher {
	return &RSSFetcher{
		feeds:   feeds,
		parser:  gofeed.NewParser(),
		log:     log,
		enabled: enabled && len(feeds) > 0,
	}
}

func (f *RSSFetcher) Name() string  { return "RSS Blogs" }
func (f *RSSFetcher) Enabled() bool { return f.enabled }

func (f *RSSFetcher) Fetch(ctx context.Context, since time.Time) ([]news.Record, error) {
	var records []news.Record
	for _, feedCfg := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(feedCfg.URL, ctx)
		if err != nil {
			f.log.Warn("rss feed fetch failed",
				zap.String("feed", feedCfg.Name), zap.Error(err))
			continue
		}

		for _, item := range feed.Items {
			pub, ok := itemTime(item)
			if !ok || !pub.After(since) {
				continue
			}
			if item.Link == "" {
				continue
			}

			desc := item.Description
			if desc == "" {
				desc = item.Content
			}

			category := feedCfg.Category
			if category == "" {
				category = news.CategoryOther
			}

			records = append(records, news.Record{
				Title:       item.Title,
				URL:         item.Link,
				Source:      feedCfg.Name,
				SourceType:  news.SourceRSS,
				Category:    category,
				PublishedAt: pub,
				Content:     news.Truncate(news.StripHTML(desc), 500),
				Extra:       map[string]any{},
			})
		}
	}
	return records, nil
}

func itemTime(item *gofeed.Item) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC(), true
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC(), true
	}
	return time.Time{}, false
}
