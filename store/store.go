package store

import (
	"context"
	"fmt"
	"strings"

	"ainewsbot/config"
	"ainewsbot/types"
)

// Store is the persistent set of articles a cycle reads its snapshot from and commits to.
type Store interface {
	// LoadKeySnapshot returns every stored key with its content hash.
	LoadKeySnapshot(ctx context.Context) (types.KeySnapshot, error)
	// UpsertBatch inserts or replaces articles by key and reports one outcome per input row,
	// in input order. A non-nil error means the whole batch failed.
	UpsertBatch(ctx context.Context, articles []types.Article) ([]types.RowOutcome, error)
}

// Reader serves the display read API.
type Reader interface {
	Query(ctx context.Context, f types.Filter) ([]types.Article, error)
}

// Backend is a store that can also be read and closed.
type Backend interface {
	Store
	Reader
	Close() error
}

// Open builds the backend selected in the configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Backend {
	case "", config.StoreMemory:
		return NewMemory(), nil
	case config.StoreSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.StoreSheets:
		return NewSheets(ctx, SheetsOptions{
			CredentialsFile: cfg.CredentialsFile,
			SpreadsheetID:   cfg.SpreadsheetID,
		})
	default:
		return nil, &types.ConfigError{Field: "STORE_BACKEND", Reason: fmt.Sprintf("unknown backend %q", cfg.Backend)}
	}
}

// checkRow returns the reason a row cannot be stored, or "".
func checkRow(a types.Article) string {
	switch {
	case strings.TrimSpace(a.SourceID) == "":
		return "missing source_id"
	case strings.TrimSpace(a.ExternalID) == "":
		return "missing external_id"
	case strings.TrimSpace(a.Title) == "":
		return "missing title"
	case strings.TrimSpace(a.URL) == "":
		return "missing url"
	case a.FetchedAt.IsZero():
		return "missing fetched_at"
	}
	return ""
}
