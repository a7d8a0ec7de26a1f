package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ainewsbot/types"

	_ "modernc.org/sqlite"
)

// Schema for the local article store. Times are unix nanoseconds so that
// fetched_at compares numerically in the upsert guard.
const Schema = `
CREATE TABLE IF NOT EXISTS articles (
    source_id    TEXT NOT NULL,
    external_id  TEXT NOT NULL,
    source_name  TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL,
    url          TEXT NOT NULL,
    published_at INTEGER,
    category     TEXT NOT NULL DEFAULT '',
    tags         TEXT NOT NULL DEFAULT '[]',
    content      TEXT NOT NULL DEFAULT '',
    summary      TEXT NOT NULL DEFAULT '',
    score        INTEGER NOT NULL DEFAULT 0,
    content_hash TEXT NOT NULL,
    fetched_at   INTEGER NOT NULL,
    PRIMARY KEY (source_id, external_id)
);

CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at);
CREATE INDEX IF NOT EXISTS idx_articles_fetched ON articles(fetched_at);
CREATE INDEX IF NOT EXISTS idx_articles_score ON articles(score);
`

const upsertSQL = `
INSERT INTO articles (source_id, external_id, source_name, title, url, published_at,
    category, tags, content, summary, score, content_hash, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_id, external_id) DO UPDATE SET
    source_name  = excluded.source_name,
    title        = excluded.title,
    url          = excluded.url,
    published_at = excluded.published_at,
    category     = excluded.category,
    tags         = excluded.tags,
    content      = excluded.content,
    summary      = excluded.summary,
    score        = excluded.score,
    content_hash = excluded.content_hash,
    fetched_at   = excluded.fetched_at
WHERE excluded.fetched_at >= articles.fetched_at`

const selectColumns = `source_id, external_id, source_name, title, url, published_at,
    category, tags, content, summary, score, content_hash, fetched_at`

// SQLite is a single-file article store.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time; WAL lets readers run alongside it
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Printf("✅ SQLite store ready at %s", path)
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) LoadKeySnapshot(ctx context.Context) (types.KeySnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_id, external_id, content_hash FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	snap := make(types.KeySnapshot)
	for rows.Next() {
		var k types.ArticleKey
		var hash string
		if err := rows.Scan(&k.SourceID, &k.ExternalID, &hash); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		snap[k] = hash
	}
	return snap, rows.Err()
}

// UpsertBatch writes the batch in one transaction. Invalid rows are rejected
// individually; the others still commit.
func (s *SQLite) UpsertBatch(ctx context.Context, articles []types.Article) ([]types.RowOutcome, error) {
	if len(articles) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	out := make([]types.RowOutcome, 0, len(articles))
	for _, a := range articles {
		key := a.Key()
		if reason := checkRow(a); reason != "" {
			out = append(out, types.Rejected(key, reason))
			continue
		}
		tags, err := json.Marshal(nonNil(a.Tags))
		if err != nil {
			out = append(out, types.Rejected(key, err.Error()))
			continue
		}
		_, err = stmt.ExecContext(ctx,
			a.SourceID, a.ExternalID, a.SourceName, a.Title, a.URL, unixOrNull(a.PublishedAt),
			a.Category, string(tags), a.Content, a.Summary, a.Score, a.ContentHash, a.FetchedAt.UnixNano(),
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			out = append(out, types.Rejected(key, err.Error()))
			continue
		}
		out = append(out, types.Committed(key))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// Query pushes the cheap predicates into SQL and leaves text search, sorting and paging to the filter.
func (s *SQLite) Query(ctx context.Context, f types.Filter) ([]types.Article, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Sources) > 0 {
		where = append(where, "source_id IN ("+strings.TrimSuffix(strings.Repeat("?,", len(f.Sources)), ",")+")")
		for _, src := range f.Sources {
			args = append(args, src)
		}
	}
	if f.MinScore > 0 {
		where = append(where, "score >= ?")
		args = append(args, f.MinScore)
	}
	if f.From != nil {
		where = append(where, "published_at >= ?")
		args = append(args, f.From.UnixNano())
	}
	if f.To != nil {
		where = append(where, "published_at <= ?")
		args = append(args, f.To.UnixNano())
	}

	q := "SELECT " + selectColumns + " FROM articles"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var all []types.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return f.Apply(all), nil
}

func scanArticle(rows *sql.Rows) (types.Article, error) {
	var (
		a         types.Article
		published sql.NullInt64
		tags      string
		fetched   int64
	)
	err := rows.Scan(&a.SourceID, &a.ExternalID, &a.SourceName, &a.Title, &a.URL, &published,
		&a.Category, &tags, &a.Content, &a.Summary, &a.Score, &a.ContentHash, &fetched)
	if err != nil {
		return types.Article{}, fmt.Errorf("scan article: %w", err)
	}
	if published.Valid {
		t := time.Unix(0, published.Int64).UTC()
		a.PublishedAt = &t
	}
	if tags != "" && tags != "[]" {
		if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
			return types.Article{}, fmt.Errorf("decode tags of %s/%s: %w", a.SourceID, a.ExternalID, err)
		}
	}
	a.FetchedAt = time.Unix(0, fetched).UTC()
	return a, nil
}

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
