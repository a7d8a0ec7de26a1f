package types

import "time"

// State represents the coordinator state machine
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateProcessing State = "normalizing/deduping"
	StateEnriching  State = "enriching"
	StateCommitting State = "committing"
	StateFailed     State = "failed"
)

// Cycle outcomes
const (
	CycleSucceeded = "succeeded"
	CyclePartial   = "partial"
	CycleFailed    = "failed"
)

// Per-source outcomes
const (
	SourceSuccess = "success"
	SourcePartial = "partial"
	SourceFailed  = "failed"
)

// Row outcomes of an upsert batch
const (
	RowCommitted = "committed"
	RowRejected  = "rejected"
)

// RowOutcome is the store's verdict for one row of an upsert batch.
type RowOutcome struct {
	Key    ArticleKey `json:"key"`
	Status string     `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// Committed builds a committed outcome for the key.
func Committed(key ArticleKey) RowOutcome {
	return RowOutcome{Key: key, Status: RowCommitted}
}

// Rejected builds a rejected outcome for the key.
func Rejected(key ArticleKey, reason string) RowOutcome {
	return RowOutcome{Key: key, Status: RowRejected, Reason: reason}
}

// SourceOutcome records how one adapter did during a cycle.
type SourceOutcome struct {
	SourceID string `json:"source_id"`
	Status   string `json:"status"`
	Items    int    `json:"items"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// CycleReport summarizes one ingestion cycle for the external scheduler.
type CycleReport struct {
	CycleID            string          `json:"cycle_id"`
	StartedAt          time.Time       `json:"started_at"`
	FinishedAt         time.Time       `json:"finished_at"`
	Status             string          `json:"status"`
	SourcesAttempted   int             `json:"sources_attempted"`
	SourcesFailed      int             `json:"sources_failed"`
	ArticlesNew        int             `json:"articles_new"`
	ArticlesUpdated    int             `json:"articles_updated"`
	ArticlesUnchanged  int             `json:"articles_unchanged"`
	ArticlesInvalid    int             `json:"articles_invalid"`
	ArticlesFiltered   int             `json:"articles_filtered"`
	ArticlesDeferred   int             `json:"articles_deferred"`
	EnrichmentFailures int             `json:"enrichment_failures"`
	Committed          int             `json:"committed"`
	CommitFailures     int             `json:"commit_failures"`
	FailedKeys         []ArticleKey    `json:"failed_keys,omitempty"`
	Sources            []SourceOutcome `json:"sources"`
	Error              string          `json:"error,omitempty"`
}

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// StatusResponse is the JSON response for GET /api/status
type StatusResponse struct {
	State      State        `json:"state"`
	InProgress bool         `json:"in_progress"`
	Logs       []LogEntry   `json:"logs"`
	LastReport *CycleReport `json:"last_report,omitempty"`
	Error      string       `json:"error,omitempty"`
}
