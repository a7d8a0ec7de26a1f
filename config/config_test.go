package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ainewsbot/types"
)

func TestLoadSourcesMergesOverDefaults(t *testing.T) {
	t.Setenv("FEED_HOST", "rss.example.com")

	path := filepath.Join(t.TempDir(), "sources.yaml")
	data := `
sources:
  - id: prtimes
    max_items: 5
  - id: zdnet
    disabled: true
  - id: example-rss
    kind: rss
    name: Example
    feed_url: https://${FEED_HOST}/ai.xml
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != len(DefaultSources())+1 {
		t.Fatalf("got %d sources", len(sources))
	}

	byID := map[string]SourceConfig{}
	for _, s := range sources {
		byID[s.ID] = s
	}
	if byID["prtimes"].MaxItems != 5 || byID["prtimes"].BaseURL != "https://prtimes.jp" {
		t.Fatalf("prtimes override = %+v", byID["prtimes"])
	}
	if !byID["zdnet"].Disabled {
		t.Fatalf("zdnet should be disabled")
	}
	if got := byID["example-rss"].FeedURL; got != "https://rss.example.com/ai.xml" {
		t.Fatalf("feed url = %q", got)
	}
	if n := len(Enabled(sources)); n != len(sources)-1 {
		t.Fatalf("Enabled() = %d", n)
	}
}

func validConfig() *Config {
	return &Config{
		FetchWorkers:   2,
		FetchRetries:   3,
		RequestTimeout: DefaultRequestTimeout,
		CronSchedule:   DefaultCronSchedule,
		Sources:        DefaultSources(),
		Summarizer:     SummarizerConfig{Provider: SummarizerNone},
		Store:          StoreConfig{Backend: StoreMemory},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"ok", func(c *Config) {}, ""},
		{"workers", func(c *Config) { c.FetchWorkers = 0 }, "FETCH_WORKERS"},
		{"cron", func(c *Config) { c.CronSchedule = "every minute" }, "CRON_SCHEDULE"},
		{"duplicate id", func(c *Config) { c.Sources = append(c.Sources, c.Sources[0]) }, "sources"},
		{"unknown kind", func(c *Config) { c.Sources[0].Kind = "gopher" }, "sources.ledgeai"},
		{"rss without feed", func(c *Config) { c.Sources = append(c.Sources, SourceConfig{ID: "x", Kind: KindRSS}) }, "sources.x"},
		{"openai key", func(c *Config) { c.Summarizer.Provider = SummarizerOpenAI }, "OPENAI_API_KEY"},
		{"sheets creds", func(c *Config) { c.Store.Backend = StoreSheets }, "GOOGLE_CREDENTIALS_FILE"},
		{"store backend", func(c *Config) { c.Store.Backend = "postgres" }, "STORE_BACKEND"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := validConfig()
			c.mutate(cfg)
			err := cfg.Validate()
			if c.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v; want nil", err)
				}
				return
			}
			var cerr *types.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() = %v; want ConfigError", err)
			}
			if cerr.Field != c.field {
				t.Fatalf("ConfigError.Field = %q; want %q", cerr.Field, c.field)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FETCH_WORKERS", "6")
	t.Setenv("MAX_ARTICLES_PER_RUN", "0")
	t.Setenv("PRTIMES_MAX", "2")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "k1:9092, k2:9092")
	t.Setenv("S3_PREFIX", "/news/")
	t.Setenv("COHERE_API_KEY", "key")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SUMMARIZER", "")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SOURCES_FILE", "")
	t.Setenv("OPENAI_ORG_ID", "org-news")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchWorkers != 6 || cfg.MaxArticlesPerRun != 0 || cfg.SourceCaps["prtimes"] != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.S3.Prefix != "news/" {
		t.Fatalf("prefix = %q", cfg.S3.Prefix)
	}
	if cfg.Summarizer.Provider != SummarizerCohere || cfg.Summarizer.OpenAIOrg != "org-news" {
		t.Fatalf("summarizer = %+v", cfg.Summarizer)
	}
}
