// Package config loads YAML configuration with embedded defaults. No
// ambient global state: callers load a Config once and pass values into
// component constructors.
package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/vivid-lct/ai-trend-monitor/internal/classify"
	"github.com/vivid-lct/ai-trend-monitor/internal/news"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type GitHubRepo struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Name  string `yaml:"name"`
}

type GitHubSource struct {
	Enabled bool         `yaml:"enabled"`
	Repos   []GitHubRepo `yaml:"repos"`
}

type RSSFeed struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

type RSSSource struct {
	Enabled bool      `yaml:"enabled"`
	Feeds   []RSSFeed `yaml:"feeds"`
}

type ForumSource struct {
	Enabled  bool     `yaml:"enabled"`
	Keywords []string `yaml:"keywords"`
}

type PaperFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type PaperSource struct {
	Enabled bool        `yaml:"enabled"`
	TopN    int         `yaml:"top_n"`
	Feeds   []PaperFeed `yaml:"feeds"`
}

type Sources struct {
	GitHub GitHubSource `yaml:"github"`
	RSS    RSSSource    `yaml:"rss"`
	Forum  ForumSource  `yaml:"forum"`
	Papers PaperSource  `yaml:"papers"`
}

type Thresholds struct {
	ForumMinScore int `yaml:"forum_min_score"`
	ColdStartDays int `yaml:"cold_start_days"`
}

type OllamaConfig struct {
	BaseURL    string `yaml:"base_url"`
	ChatModel  string `yaml:"chat_model"`
	EmbedModel string `yaml:"embed_model"`
	TopK       int    `yaml:"top_k"`
	MaxTokens  int    `yaml:"max_tokens"`
}

type Config struct {
	KeepDays   int                 `yaml:"keep_days"`
	Thresholds Thresholds          `yaml:"thresholds"`
	Sources    Sources             `yaml:"sources"`
	Keywords   map[string][]string `yaml:"keywords"`
	Ollama     OllamaConfig        `yaml:"ollama"`
}

// GetKeepDays returns the rolling retention window, defaulting to 30.
func (c *Config) GetKeepDays() int {
	if c.KeepDays <= 0 {
		return 30
	}
	return c.KeepDays
}

// GetColdStartDays returns the first-run fetch window, defaulting to 7.
func (c *Config) GetColdStartDays() int {
	if c.Thresholds.ColdStartDays <= 0 {
		return 7
	}
	return c.Thresholds.ColdStartDays
}

// GetForumMinScore returns the forum admission threshold, defaulting to 50.
func (c *Config) GetForumMinScore() int {
	if c.Thresholds.ForumMinScore <= 0 {
		return 50
	}
	return c.Thresholds.ForumMinScore
}

// GetOllama returns the Ollama settings with defaults filled in.
func (c *Config) GetOllama() OllamaConfig {
	o := c.Ollama
	if o.BaseURL == "" {
		o.BaseURL = "http://localhost:11434"
	}
	if o.ChatModel == "" {
		o.ChatModel = "qwen2.5:3b"
	}
	if o.EmbedModel == "" {
		o.EmbedModel = "nomic-embed-text"
	}
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1024
	}
	return o
}

// KeywordTable converts the raw keyword config into the classifier's
// typed table.
func (c *Config) KeywordTable() classify.KeywordTable {
	table := make(classify.KeywordTable, len(c.Keywords))
	for cat, words := range c.Keywords {
		table[news.Category(cat)] = words
	}
	return table
}

// GitHubToken resolves the optional API token from the environment.
func GitHubToken() string {
	return os.Getenv("TREND_GITHUB_TOKEN")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "ai-trend-monitor", "config.yaml")
}

// DataDir holds the rolling snapshot, archive shards, and last-run
// marker.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "ai-trend-monitor")
}

// VectorDBPath is the embedding index's persistent storage.
func VectorDBPath() string {
	return filepath.Join(DataDir(), "vector.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path, falling back to embedded defaults when
// no file exists (and writing them out for the user to edit).
func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

var validCategories = map[string]bool{
	"framework": true, "llm": true, "rag": true, "agent": true,
	"workflow": true, "paper": true, "other": true,
}

func validate(cfg *Config) error {
	for i, r := range cfg.Sources.GitHub.Repos {
		if r.Owner == "" || r.Repo == "" {
			return fmt.Errorf("github repo %d: owner and repo are required", i)
		}
		if r.Name == "" {
			return fmt.Errorf("github repo %s/%s: name is required", r.Owner, r.Repo)
		}
	}

	for _, f := range cfg.Sources.RSS.Feeds {
		if f.Name == "" {
			return fmt.Errorf("rss feed with url %q: name is required", f.URL)
		}
		if err := validateFeedURL(f.Name, f.URL); err != nil {
			return err
		}
		if f.Category != "" && !validCategories[f.Category] {
			return fmt.Errorf("rss feed %q: unknown category %q", f.Name, f.Category)
		}
	}

	for _, f := range cfg.Sources.Papers.Feeds {
		if f.Name == "" {
			return fmt.Errorf("paper feed with url %q: name is required", f.URL)
		}
		if err := validateFeedURL(f.Name, f.URL); err != nil {
			return err
		}
	}

	for cat := range cfg.Keywords {
		if !validCategories[cat] {
			return fmt.Errorf("keywords: unknown category %q", cat)
		}
	}
	return nil
}

func validateFeedURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("feed %q: url is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("feed %q: invalid url: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed %q: url scheme must be http or https, got %q", name, u.Scheme)
	}
	return nil
}
