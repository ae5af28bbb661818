package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/config"
	"github.com/vivid-lct/ai-trend-monitor/internal/fetch"
	"github.com/vivid-lct/ai-trend-monitor/internal/filter"
	"github.com/vivid-lct/ai-trend-monitor/internal/news"
	"github.com/vivid-lct/ai-trend-monitor/internal/ollama"
	"github.com/vivid-lct/ai-trend-monitor/internal/pipeline"
	"github.com/vivid-lct/ai-trend-monitor/internal/store"
	"github.com/vivid-lct/ai-trend-monitor/internal/vector"
)

var flagNoIndex bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, score, and store the latest records, then index them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log, err := newLogger()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		defer log.Sync()

		st := store.New(config.DataDir(), log)

		summary, err := pipeline.Run(cmd.Context(), pipeline.Options{
			Store:         st,
			Fetchers:      buildFetchers(cfg, log),
			Keywords:      cfg.KeywordTable(),
			Thresholds:    filter.Thresholds{ForumMinScore: cfg.GetForumMinScore()},
			KeepDays:      cfg.GetKeepDays(),
			ColdStartDays: cfg.GetColdStartDays(),
			Log:           log,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Fetched %d record(s), kept %d after dedupe/filter.\n",
			summary.Fetched, summary.Kept)
		if summary.Breaking > 0 {
			fmt.Printf("Found %d breaking change(s).\n", summary.Breaking)
		}
		if summary.SourceErrors > 0 {
			fmt.Printf("%d source(s) failed; run with --verbose for details.\n",
				summary.SourceErrors)
		}

		if flagNoIndex {
			return nil
		}
		return indexRecords(cmd, cfg, summary.Records, log)
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagNoIndex, "no-index", false, "skip vector indexing")
}

func buildFetchers(cfg *config.Config, log *zap.Logger) []fetch.Fetcher {
	ghRepos := make([]fetch.GitHubRepo, 0, len(cfg.Sources.GitHub.Repos))
	for _, r := range cfg.Sources.GitHub.Repos {
		ghRepos = append(ghRepos, fetch.GitHubRepo{Owner: r.Owner, Repo: r.Repo, Name: r.Name})
	}

	rssFeeds := make([]fetch.RSSFeed, 0, len(cfg.Sources.RSS.Feeds))
	for _, f := range cfg.Sources.RSS.Feeds {
		rssFeeds = append(rssFeeds, fetch.RSSFeed{
			Name:     f.Name,
			URL:      f.URL,
			Category: news.Category(f.Category),
		})
	}

	paperFeeds := make([]fetch.PaperFeed, 0, len(cfg.Sources.Papers.Feeds))
	for _, f := range cfg.Sources.Papers.Feeds {
		paperFeeds = append(paperFeeds, fetch.PaperFeed{Name: f.Name, URL: f.URL})
	}

	return []fetch.Fetcher{
		fetch.NewGitHub(ghRepos, config.GitHubToken(), cfg.Sources.GitHub.Enabled, log),
		fetch.NewRSS(rssFeeds, cfg.Sources.RSS.Enabled, log),
		fetch.NewForum(cfg.Sources.Forum.Keywords, cfg.GetForumMinScore(), cfg.Sources.Forum.Enabled, log),
		fetch.NewPapers(paperFeeds, cfg.Sources.Papers.TopN, cfg.Sources.Papers.Enabled, log),
	}
}

func indexRecords(cmd *cobra.Command, cfg *config.Config, records []news.Record, log *zap.Logger) error {
	oc := cfg.GetOllama()
	client := ollama.New(oc.BaseURL, oc.ChatModel, oc.EmbedModel, oc.MaxTokens)
	if !client.Available(cmd.Context()) {
		fmt.Println("Ollama not reachable; skipping vector indexing.")
		return nil
	}

	ix, err := vector.Open(config.VectorDBPath(), client, log)
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}
	defer ix.Close()

	added, err := ix.Add(cmd.Context(), records)
	if err != nil {
		return fmt.Errorf("indexing records: %w", err)
	}
	fmt.Printf("Indexed %d new record(s).\n", added)
	return nil
}
