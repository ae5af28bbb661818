package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

// GitHubRepo identifies one repository whose releases are tracked.
type GitHubRepo struct {
	Owner string
	Repo  string
	Name  string
}

// GitHubFetcher collects release notes from configured repositories.
// Star counts are fetched per repo and carried in extra for heat scoring.
type GitHubFetcher struct {
	repos   []GitHubRepo
	token   string
	apiBase string
	client  *http.Client
	log     *zap.Logger
	enabled bool
}

func NewGitHub(repos []GitHubRepo, token string, enabled bool, log *zap.Logger) *GitHubFetcher {
	return &GitHubFetcher{
		repos:   repos,
		token:   token,
		apiBase: "https://api.github.com",
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
		enabled: enabled && len(repos) > 0,
	}
}

func (f *GitHubFetcher) Name() string  { return "GitHub Releases" }
func (f *GitHubFetcher) Enabled() bool { return f.enabled }

type githubRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Body        string `json:"body"`
	HTMLURL     string `json:"html_url"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
}

// Fetch walks each configured repo; a failing repo is logged and skipped
// so the rest still report.
func (f *GitHubFetcher) Fetch(ctx context.Context, since time.Time) ([]news.Record, error) {
	var records []news.Record
	for _, repo := range f.repos {
		stars := f.repoStars(ctx, repo)

		releases, err := f.releases(ctx, repo)
		if err != nil {
			f.log.Warn("github repo fetch failed",
				zap.String("repo", repo.Owner+"/"+repo.Repo), zap.Error(err))
			continue
		}

		for _, rel := range releases {
			pubStr := rel.PublishedAt
			if pubStr == "" {
				pubStr = rel.CreatedAt
			}
			pub, err := time.Parse(time.RFC3339, pubStr)
			if err != nil {
				continue
			}
			pub = pub.UTC()
			if !pub.After(since) {
				continue
			}

			title := strings.Trim(fmt.Sprintf("[%s] %s: %s", repo.Name, rel.TagName, rel.Name), ": ")
			records = append(records, news.Record{
				Title:       title,
				URL:         rel.HTMLURL,
				Source:      repo.Name + " GitHub",
				SourceType:  news.SourceGitHub,
				Category:    news.CategoryOther,
				PublishedAt: pub,
				Content:     news.Truncate(rel.Body, 500),
				Extra: map[string]any{
					"version": rel.TagName,
					"repo":    repo.Owner + "/" + repo.Repo,
					"stars":   stars,
				},
			})
		}
	}
	return records, nil
}

// repoStars is best-effort; a miss just means no heat signal.
func (f *GitHubFetcher) repoStars(ctx context.Context, repo GitHubRepo) int {
	var meta struct {
		StargazersCount int `json:"stargazers_count"`
	}
	url := fmt.Sprintf("%s/repos/%s/%s", f.apiBase, repo.Owner, repo.Repo)
	if err := f.getJSON(ctx, url, &meta); err != nil {
		return 0
	}
	return meta.StargazersCount
}

func (f *GitHubFetcher) releases(ctx context.Context, repo GitHubRepo) ([]githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=10", f.apiBase, repo.Owner, repo.Repo)
	var releases []githubRelease
	if err := f.getJSON(ctx, url, &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

func (f *GitHubFetcher) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if f.token != "" {
		req.Header.Set("Authorization", "token "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github API %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
