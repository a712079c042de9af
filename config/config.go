package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DeepSeekAPIKey   string              `yaml:"deepseek_api_key"`
	DeepSeekModel    string              `yaml:"deepseek_model"`
	EmailSender      string              `yaml:"email_sender"`
	EmailPassword    string              `yaml:"email_password"`
	EmailRecipient   string              `yaml:"email_recipient"`
	Format           string              `yaml:"format"`
	BriefingTime     string              `yaml:"briefing_time"`
	Timezone         string              `yaml:"timezone"`
	MaxItemsPerFeed  int                 `yaml:"max_items_per_feed"`
	MaxPapers        int                 `yaml:"max_papers"`
	FetchTimeoutSecs int                 `yaml:"fetch_timeout_secs"`
	PapersAPI        string              `yaml:"papers_api"`
	Sources          map[string][]string `yaml:"sources"`
}

// briefingTimeRegex validates HH:MM format with proper ranges.
var briefingTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads configuration from a YAML file and applies defaults and
// environment overrides. A missing file is not an error: credentials can be
// supplied entirely through the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	case os.IsNotExist(err):
		// env-only configuration
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("BRIEFING_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

func applyDefaults(cfg *Config) {
	if cfg.DeepSeekModel == "" {
		cfg.DeepSeekModel = "deepseek-chat"
	}
	if cfg.Format == "" {
		cfg.Format = "html"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.MaxItemsPerFeed == 0 {
		cfg.MaxItemsPerFeed = 3
	}
	if cfg.MaxPapers == 0 {
		cfg.MaxPapers = 5
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = 10
	}
	if cfg.PapersAPI == "" {
		cfg.PapersAPI = "https://huggingface.co/api/daily_papers"
	}
	if cfg.Sources == nil {
		cfg.Sources = DefaultSources()
	}
}

// DefaultSources returns the built-in category feed lists.
func DefaultSources() map[string][]string {
	return map[string][]string{
		"tech": {
			"http://feeds.feedburner.com/TechCrunch/",
			"https://www.theverge.com/rss/index.xml",
			"https://36kr.com/feed",
		},
		"finance": {
			"https://finance.yahoo.com/news/rssindex",
			"http://feeds.marketwatch.com/marketwatch/topstories/",
		},
		"papers": {
			"http://export.arxiv.org/rss/cs.AI",
			"http://export.arxiv.org/rss/cs.CL",
		},
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		cfg.DeepSeekAPIKey = key
	}
	if sender := os.Getenv("EMAIL_SENDER"); sender != "" {
		cfg.EmailSender = sender
	}
	if password := os.Getenv("EMAIL_APP_PASSWORD"); password != "" {
		cfg.EmailPassword = password
	}
	if recipient := os.Getenv("EMAIL_RECEIVER"); recipient != "" {
		cfg.EmailRecipient = recipient
	}
}

func validate(cfg *Config) error {
	if cfg.Format != "plain" && cfg.Format != "html" {
		return fmt.Errorf("format must be \"plain\" or \"html\", got %q", cfg.Format)
	}
	if cfg.BriefingTime != "" && !briefingTimeRegex.MatchString(cfg.BriefingTime) {
		return fmt.Errorf("briefing_time must be in HH:MM format (00:00-23:59), got %q", cfg.BriefingTime)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.MaxItemsPerFeed < 0 {
		return fmt.Errorf("max_items_per_feed must be positive, got %d", cfg.MaxItemsPerFeed)
	}
	if cfg.MaxPapers < 0 {
		return fmt.Errorf("max_papers must be positive, got %d", cfg.MaxPapers)
	}
	return nil
}
