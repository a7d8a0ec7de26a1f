package store

import (
	"context"
	"sync"

	"ainewsbot/types"
)

// Memory is a map-backed store. The hooks let tests inject failures.
type Memory struct {
	mu       sync.RWMutex
	articles map[types.ArticleKey]types.Article
	order    []types.ArticleKey

	// Reject, when set, is asked about every row; a non-empty reason rejects it.
	Reject func(a types.Article) string
	// SnapshotErr and UpsertErr fail the whole call when set.
	SnapshotErr error
	UpsertErr   error

	SnapshotCalls int
	UpsertCalls   int
}

func NewMemory() *Memory {
	return &Memory{articles: make(map[types.ArticleKey]types.Article)}
}

func (m *Memory) LoadKeySnapshot(ctx context.Context) (types.KeySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SnapshotCalls++
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := make(types.KeySnapshot, len(m.articles))
	for k, a := range m.articles {
		snap[k] = a.ContentHash
	}
	return snap, nil
}

// UpsertBatch stores each valid row. A row older than the stored one is acknowledged
// but leaves the stored row untouched.
func (m *Memory) UpsertBatch(ctx context.Context, articles []types.Article) ([]types.RowOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]types.RowOutcome, 0, len(articles))
	for _, a := range articles {
		key := a.Key()
		reason := checkRow(a)
		if reason == "" && m.Reject != nil {
			reason = m.Reject(a)
		}
		if reason != "" {
			out = append(out, types.Rejected(key, reason))
			continue
		}
		old, exists := m.articles[key]
		switch {
		case !exists:
			m.order = append(m.order, key)
			m.articles[key] = a
		case !a.FetchedAt.Before(old.FetchedAt):
			m.articles[key] = a
		}
		out = append(out, types.Committed(key))
	}
	return out, nil
}

func (m *Memory) Query(ctx context.Context, f types.Filter) ([]types.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Apply(m.All()), nil
}

// All returns the stored articles in insertion order.
func (m *Memory) All() []types.Article {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Article, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.articles[k])
	}
	return out
}

// Get returns the stored article for key.
func (m *Memory) Get(key types.ArticleKey) (types.Article, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.articles[key]
	return a, ok
}

func (m *Memory) Close() error { return nil }
