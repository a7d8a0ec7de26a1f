// Package enrich adds a summary and an importance score to articles through a language model.
package enrich

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"ainewsbot/config"
	"ainewsbot/types"

	"golang.org/x/sync/semaphore"
)

// Options tunes an Enricher. Zero values use the package defaults.
type Options struct {
	Workers int
	Timeout time.Duration
	Cache   SummaryCache
}

// Enricher summarizes articles with bounded concurrency and a per-call timeout.
type Enricher struct {
	summarizer Summarizer
	cache      SummaryCache
	workers    int64
	timeout    time.Duration
}

// New creates an Enricher around s.
func New(s Summarizer, opts Options) *Enricher {
	e := &Enricher{
		summarizer: s,
		cache:      opts.Cache,
		workers:    int64(opts.Workers),
		timeout:    opts.Timeout,
	}
	if e.workers < 1 {
		e.workers = config.DefaultEnrichWorkers
	}
	if e.timeout <= 0 {
		e.timeout = config.DefaultEnrichTimeout
	}
	return e
}

// Close releases the summary cache, if it holds a connection.
func (e *Enricher) Close() error {
	if c, ok := e.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// EnrichAll returns copies of articles carrying summaries, plus the number of failed calls.
// A failed article is returned unchanged. Articles without content are not sent.
// Once ctx is done no further calls start.
func (e *Enricher) EnrichAll(ctx context.Context, articles []types.Article) ([]types.Article, int) {
	out := append([]types.Article(nil), articles...)
	if e == nil || e.summarizer == nil {
		return out, 0
	}

	sem := semaphore.NewWeighted(e.workers)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	for i, a := range articles {
		if a.Content == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, a types.Article) {
			defer wg.Done()
			defer sem.Release(1)

			enriched, err := e.enrich(ctx, a)
			if err != nil {
				log.Printf("⚠️ [%s] summarize %q: %v", a.SourceID, a.Title, err)
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			out[i] = enriched
		}(i, a)
	}
	wg.Wait()
	return out, failures
}

func (e *Enricher) enrich(ctx context.Context, a types.Article) (types.Article, error) {
	if e.cache != nil && a.ContentHash != "" {
		s, ok, err := e.cache.Get(ctx, a.ContentHash)
		if err != nil {
			log.Printf("⚠️ summary cache get: %v", err)
		} else if ok {
			return a.WithSummary(s.Text, clampScore(s.Score)), nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reply, err := e.summarizer.Summarize(callCtx, BuildPrompt(a))
	if err != nil {
		var serr *types.ServiceError
		if !errors.As(err, &serr) {
			err = &types.ServiceError{Op: "summarize", Cause: err}
		}
		return a, err
	}
	summary, score, err := ParseResponse(reply)
	if err != nil {
		return a, &types.ServiceError{Op: "parse", Cause: err}
	}

	if e.cache != nil && a.ContentHash != "" {
		if err := e.cache.Set(ctx, a.ContentHash, Summary{Text: summary, Score: score}); err != nil {
			log.Printf("⚠️ summary cache set: %v", err)
		}
	}
	return a.WithSummary(summary, score), nil
}

// FromConfig builds the configured summarizer and optional Redis cache.
// It returns nil when summarization is disabled.
func FromConfig(sc config.SummarizerConfig, rc config.RedisConfig) (*Enricher, error) {
	var s Summarizer
	switch sc.Provider {
	case config.SummarizerOpenAI:
		o := NewOpenAI(sc.OpenAIKey, sc.OpenAIModel, sc.OpenAIEndpoint, nil)
		o.Organization = sc.OpenAIOrg
		s = o
	case config.SummarizerCohere:
		s = NewCohere(sc.CohereKey, sc.CohereModel)
	default:
		return nil, nil
	}

	opts := Options{Workers: sc.Workers, Timeout: sc.Timeout}
	if rc.Addr != "" {
		cache, err := NewRedisCache(RedisCacheConfig{Addr: rc.Addr, Password: rc.Password, DB: rc.DB, TTL: rc.TTL})
		if err != nil {
			log.Printf("⚠️ summary cache disabled: %v", err)
		} else {
			opts.Cache = cache
		}
	}
	log.Printf("✅ summarizer %s enabled (workers=%d)", sc.Provider, max(sc.Workers, 1))
	return New(s, opts), nil
}
