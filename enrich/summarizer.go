package enrich

import "context"

// Summarizer is a text-in text-out language model call.
// Failures are reported as *types.ServiceError.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// SummaryCache stores finished summaries by content hash.
type SummaryCache interface {
	Get(ctx context.Context, contentHash string) (Summary, bool, error)
	Set(ctx context.Context, contentHash string, s Summary) error
}

// Summary is the cached result of one summarization.
type Summary struct {
	Text  string `json:"summary"`
	Score int    `json:"score"`
}
