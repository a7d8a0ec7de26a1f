package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ainewsbot/types"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// SummarizerConfig selects and tunes the enrichment backend.
type SummarizerConfig struct {
	Provider       string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIEndpoint string
	OpenAIOrg      string
	CohereKey      string
	CohereModel    string
	Workers        int
	Timeout        time.Duration
}

// RedisConfig configures the optional summary cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// StoreConfig selects the persistent article store.
type StoreConfig struct {
	Backend         string
	SQLitePath      string
	CredentialsFile string
	SpreadsheetID   string
}

// S3Config configures the optional batch archive. Empty Bucket disables it.
type S3Config struct {
	Bucket       string
	Region       string
	Profile      string
	Prefix       string
	UsePathStyle bool
}

// KafkaConfig configures the optional event publisher and trigger consumer.
type KafkaConfig struct {
	Brokers       []string
	ArticlesTopic string
	ReportsTopic  string
	TriggerTopic  string
	GroupID       string
}

// Config is the full service configuration.
type Config struct {
	Port         string
	CronSchedule string

	FetchWorkers   int
	RequestTimeout time.Duration
	RequestDelay   time.Duration
	RetryBackoff   time.Duration
	FetchRetries   int

	MaxArticlesPerRun int
	SourceCaps        map[string]int
	KeywordFilter     bool

	Sources      []SourceConfig
	Summarizer   SummarizerConfig
	Redis        RedisConfig
	Store        StoreConfig
	S3           S3Config
	Kafka        KafkaConfig
	ReadCacheTTL time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:         GetEnvOrDefault("PORT", DefaultPort),
		CronSchedule: GetEnvOrDefault("CRON_SCHEDULE", DefaultCronSchedule),

		FetchWorkers:   GetEnvInt("FETCH_WORKERS", DefaultFetchWorkers),
		RequestTimeout: GetEnvSeconds("REQUEST_TIMEOUT_SECONDS", DefaultRequestTimeout),
		RequestDelay:   time.Duration(GetEnvInt("REQUEST_DELAY_MS", int(DefaultRequestDelay/time.Millisecond))) * time.Millisecond,
		RetryBackoff:   DefaultRetryBackoff,
		FetchRetries:   GetEnvInt("FETCH_RETRIES", DefaultFetchRetries),

		MaxArticlesPerRun: GetEnvInt("MAX_ARTICLES_PER_RUN", DefaultMaxArticlesPerRun),
		SourceCaps:        map[string]int{"prtimes": GetEnvInt("PRTIMES_MAX", DefaultPRTimesMax)},
		KeywordFilter:     GetEnvBool("KEYWORD_FILTER", true),

		Summarizer: SummarizerConfig{
			Provider:       strings.ToLower(os.Getenv("SUMMARIZER")),
			OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:    GetEnvOrDefault("OPENAI_MODEL", DefaultOpenAIModel),
			OpenAIEndpoint: os.Getenv("OPENAI_ENDPOINT"),
			OpenAIOrg:      os.Getenv("OPENAI_ORG_ID"),
			CohereKey:      os.Getenv("COHERE_API_KEY"),
			CohereModel:    GetEnvOrDefault("COHERE_MODEL", DefaultCohereModel),
			Workers:        GetEnvInt("ENRICH_WORKERS", DefaultEnrichWorkers),
			Timeout:        GetEnvSeconds("ENRICH_TIMEOUT_SECONDS", DefaultEnrichTimeout),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASS"),
			DB:       GetEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(GetEnvInt("SUMMARY_CACHE_TTL_HOURS", int(DefaultSummaryCacheTTL/time.Hour))) * time.Hour,
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(GetEnvOrDefault("STORE_BACKEND", StoreMemory)),
			SQLitePath:      GetEnvOrDefault("SQLITE_PATH", DefaultSQLitePath),
			CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
			SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		},
		S3: S3Config{
			Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
			Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
			Profile:      strings.TrimSpace(os.Getenv("S3_PROFILE")),
			Prefix:       normalizePrefix(os.Getenv("S3_PREFIX")),
			UsePathStyle: GetEnvBool("S3_USE_PATH_STYLE", false),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BOOTSTRAP_SERVERS")),
			ArticlesTopic: GetEnvOrDefault("ARTICLES_TOPIC", DefaultArticlesTopic),
			ReportsTopic:  GetEnvOrDefault("REPORTS_TOPIC", DefaultReportsTopic),
			TriggerTopic:  GetEnvOrDefault("TRIGGER_TOPIC", DefaultTriggerTopic),
			GroupID:       GetEnvOrDefault("KAFKA_GROUP_ID", DefaultKafkaGroupID),
		},
		ReadCacheTTL: GetEnvSeconds("READ_CACHE_SECONDS", DefaultReadCacheTTL),
	}

	if cfg.Summarizer.Provider == "" {
		cfg.Summarizer.Provider = defaultProvider(cfg.Summarizer)
	}

	cfg.Sources = DefaultSources()
	if path := os.Getenv("SOURCES_FILE"); path != "" {
		sources, err := LoadSources(path)
		if err != nil {
			return nil, &types.ConfigError{Field: "SOURCES_FILE", Reason: err.Error()}
		}
		cfg.Sources = sources
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and returns a *types.ConfigError on the first problem.
func (c *Config) Validate() error {
	if c.FetchWorkers < 1 {
		return &types.ConfigError{Field: "FETCH_WORKERS", Reason: "must be at least 1"}
	}
	if c.FetchRetries < 1 {
		return &types.ConfigError{Field: "FETCH_RETRIES", Reason: "must be at least 1"}
	}
	if c.RequestTimeout <= 0 {
		return &types.ConfigError{Field: "REQUEST_TIMEOUT_SECONDS", Reason: "must be positive"}
	}
	if c.MaxArticlesPerRun < 0 {
		return &types.ConfigError{Field: "MAX_ARTICLES_PER_RUN", Reason: "must not be negative"}
	}
	if c.CronSchedule != "" {
		if _, err := cron.ParseStandard(c.CronSchedule); err != nil {
			return &types.ConfigError{Field: "CRON_SCHEDULE", Reason: err.Error()}
		}
	}

	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.ID == "" {
			return &types.ConfigError{Field: "sources", Reason: "source without id"}
		}
		if seen[s.ID] {
			return &types.ConfigError{Field: "sources", Reason: "duplicate source id " + s.ID}
		}
		seen[s.ID] = true
		switch s.Kind {
		case KindLedgeAI, KindAINow, KindPRTimes, KindITmedia, KindZDNet:
		case KindRSS:
			if s.FeedURL == "" {
				return &types.ConfigError{Field: "sources." + s.ID, Reason: "rss source needs feed_url"}
			}
		default:
			return &types.ConfigError{Field: "sources." + s.ID, Reason: "unknown kind " + strconv.Quote(s.Kind)}
		}
	}

	switch c.Summarizer.Provider {
	case SummarizerNone:
	case SummarizerOpenAI:
		if c.Summarizer.OpenAIKey == "" {
			return &types.ConfigError{Field: "OPENAI_API_KEY", Reason: "required for the openai summarizer"}
		}
	case SummarizerCohere:
		if c.Summarizer.CohereKey == "" {
			return &types.ConfigError{Field: "COHERE_API_KEY", Reason: "required for the cohere summarizer"}
		}
	default:
		return &types.ConfigError{Field: "SUMMARIZER", Reason: "unknown provider " + strconv.Quote(c.Summarizer.Provider)}
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return &types.ConfigError{Field: "SQLITE_PATH", Reason: "required for the sqlite store"}
		}
	case StoreSheets:
		if c.Store.CredentialsFile == "" || c.Store.SpreadsheetID == "" {
			return &types.ConfigError{Field: "GOOGLE_CREDENTIALS_FILE", Reason: "sheets store needs credentials file and SPREADSHEET_ID"}
		}
	default:
		return &types.ConfigError{Field: "STORE_BACKEND", Reason: "unknown backend " + strconv.Quote(c.Store.Backend)}
	}
	return nil
}

// SourceTimeout returns the per-request timeout of a source.
func (c *Config) SourceTimeout(s SourceConfig) time.Duration {
	if s.TimeoutSeconds > 0 {
		return time.Duration(s.TimeoutSeconds) * time.Second
	}
	return c.RequestTimeout
}

func defaultProvider(s SummarizerConfig) string {
	switch {
	case s.OpenAIKey != "":
		return SummarizerOpenAI
	case s.CohereKey != "":
		return SummarizerCohere
	default:
		return SummarizerNone
	}
}

// GetEnvOrDefault returns the trimmed env value or def when unset.
func GetEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// GetEnvInt parses an integer env value, falling back to def.
func GetEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GetEnvBool parses a boolean env value, falling back to def.
func GetEnvBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// GetEnvSeconds parses a number of seconds, falling back to def.
func GetEnvSeconds(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return strings.Trim(p, "/") + "/"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
