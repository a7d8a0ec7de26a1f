package config

import "time"

// Fetch Constants
const (
	// DefaultFetchWorkers caps how many sources are fetched at the same time
	DefaultFetchWorkers = 4

	// DefaultRequestTimeout applies to every outbound page request
	DefaultRequestTimeout = 30 * time.Second

	// DefaultFetchRetries is the number of attempts per page before giving up
	DefaultFetchRetries = 3

	// DefaultRetryBackoff is the first retry wait; it doubles on each attempt
	DefaultRetryBackoff = time.Second

	// DefaultRequestDelay is the pause between two requests to the same site
	DefaultRequestDelay = 500 * time.Millisecond

	// DefaultMaxPages limits listing pagination per source
	DefaultMaxPages = 3

	// DefaultMaxItems limits article detail fetches per source
	DefaultMaxItems = 15
)

// Selection Constants
const (
	// DefaultMaxArticlesPerRun caps how many new/updated articles one cycle commits
	DefaultMaxArticlesPerRun = 10

	// DefaultPRTimesMax caps press releases per cycle
	DefaultPRTimesMax = 4
)

// Enrichment Constants
const (
	// DefaultEnrichWorkers caps concurrent summarizer calls
	DefaultEnrichWorkers = 2

	// DefaultEnrichTimeout bounds one summarizer call
	DefaultEnrichTimeout = 30 * time.Second

	// DefaultSummaryCacheTTL keeps cached summaries for a week
	DefaultSummaryCacheTTL = 7 * 24 * time.Hour

	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultCohereModel = "command-r"
)

// Service Constants
const (
	DefaultPort         = "8080"
	DefaultCronSchedule = "0 */3 * * *"

	// DefaultReadCacheTTL is how long the display read API serves a cached article list
	DefaultReadCacheTTL = 60 * time.Second

	DefaultSQLitePath    = "data/articles.db"
	DefaultArticlesTopic = "news-articles"
	DefaultReportsTopic  = "news-cycle-reports"
	DefaultTriggerTopic  = "news-cycle-requests"
	DefaultKafkaGroupID  = "ainewsbot-trigger-group"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreSheets = "sheets"
)

// Summarizer providers
const (
	SummarizerNone   = "none"
	SummarizerOpenAI = "openai"
	SummarizerCohere = "cohere"
)
