// Package orchestrator runs ingestion cycles: fetch every source, normalize,
// deduplicate against the store, enrich and commit one batch.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"ainewsbot/config"
	"ainewsbot/deduplication"
	"ainewsbot/enrich"
	"ainewsbot/normalize"
	"ainewsbot/sites"
	"ainewsbot/store"
	"ainewsbot/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Publisher is notified after every commit with the rows the store accepted.
// Errors are logged; they never fail the cycle.
type Publisher interface {
	Publish(ctx context.Context, report *types.CycleReport, committed []types.Article) error
}

// Options wires a Coordinator.
type Options struct {
	Adapters   []sites.SiteAdapter
	Store      store.Store
	Enricher   *enrich.Enricher // nil disables enrichment
	Normalizer *normalize.Normalizer
	Publishers []Publisher

	FetchWorkers  int
	MaxArticles   int            // 0 = unlimited
	SourceCaps    map[string]int // per-source limits, arrival order
	KeywordFilter bool

	State *StateManager
	Now   func() time.Time
	NewID func() string
}

// Coordinator runs at most one ingestion cycle at a time.
type Coordinator struct {
	adapters   []sites.SiteAdapter
	store      store.Store
	enricher   *enrich.Enricher
	normalizer *normalize.Normalizer
	publishers []Publisher

	workers       int
	maxArticles   int
	caps          map[string]int
	keywordFilter bool

	state *StateManager
	now   func() time.Time
	newID func() string

	running atomic.Bool

	clockMu     sync.Mutex
	lastFetched time.Time
}

// New validates the options and builds a coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, &types.ConfigError{Field: "store", Reason: "a store is required"}
	}
	c := &Coordinator{
		adapters:      opts.Adapters,
		store:         opts.Store,
		enricher:      opts.Enricher,
		normalizer:    opts.Normalizer,
		publishers:    opts.Publishers,
		workers:       opts.FetchWorkers,
		maxArticles:   opts.MaxArticles,
		caps:          opts.SourceCaps,
		keywordFilter: opts.KeywordFilter,
		state:         opts.State,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if c.normalizer == nil {
		c.normalizer = normalize.NewNormalizer(sites.Names(opts.Adapters))
	}
	if c.workers < 1 {
		c.workers = min(max(len(opts.Adapters), 1), config.DefaultFetchWorkers)
	}
	if c.state == nil {
		c.state = NewStateManager()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c, nil
}

// InProgress reports whether a cycle is running. It never blocks.
func (c *Coordinator) InProgress() bool {
	return c.running.Load()
}

// Status returns the state snapshot served by the API.
func (c *Coordinator) Status() types.StatusResponse {
	s := c.state.Status()
	s.InProgress = c.InProgress()
	return s
}

// sourced is a raw item tagged with the index of the adapter that produced it.
type sourced struct {
	idx  int
	item types.RawItem
}

// RunCycle runs one full ingestion cycle. It returns types.ErrCycleInProgress
// immediately when another cycle is running. A cancelled or failed cycle
// commits nothing; its report has Status failed.
func (c *Coordinator) RunCycle(ctx context.Context) (*types.CycleReport, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, types.ErrCycleInProgress
	}
	defer c.running.Store(false)

	report := &types.CycleReport{
		CycleID:          c.newID(),
		StartedAt:        c.now(),
		SourcesAttempted: len(c.adapters),
		Sources:          []types.SourceOutcome{},
	}
	c.state.Begin(report.CycleID)
	c.logf(report, "🔄 cycle started with %d sources", len(c.adapters))
	fetchedAt := c.cycleClock()

	snapshot, err := c.store.LoadKeySnapshot(ctx)
	if err != nil {
		return c.fail(report, &types.StoreError{Op: "load snapshot", Cause: err})
	}

	batch := deduplication.NewBatch(snapshot)
	c.fetchAll(ctx, report, batch, fetchedAt)
	if err := ctx.Err(); err != nil {
		return c.fail(report, fmt.Errorf("cycle cancelled: %w", err))
	}
	report.ArticlesUnchanged = batch.Count(deduplication.Unchanged)

	selected, deferred := selectEntries(batch.Entries(), c.maxArticles, c.caps)
	report.ArticlesDeferred = deferred
	articles := make([]types.Article, len(selected))
	for i, e := range selected {
		articles[i] = e.Article
		switch e.Class {
		case deduplication.New:
			report.ArticlesNew++
		case deduplication.Updated:
			report.ArticlesUpdated++
		}
	}
	c.logf(report, "📰 %d new, %d updated, %d unchanged, %d deferred",
		report.ArticlesNew, report.ArticlesUpdated, report.ArticlesUnchanged, deferred)

	if len(articles) > 0 && c.enricher != nil {
		c.state.SetState(types.StateEnriching)
		articles, report.EnrichmentFailures = c.enricher.EnrichAll(ctx, articles)
		if err := ctx.Err(); err != nil {
			return c.fail(report, fmt.Errorf("cycle cancelled: %w", err))
		}
		if report.EnrichmentFailures > 0 {
			c.logf(report, "⚠️ %d summaries failed", report.EnrichmentFailures)
		}
	}

	var committed []types.Article
	if len(articles) > 0 {
		c.state.SetState(types.StateCommitting)
		committed, err = c.commit(ctx, report, articles)
		if err != nil {
			return c.fail(report, err)
		}
	}

	report.Status = cycleStatus(report)
	report.FinishedAt = c.now()
	c.publish(ctx, report, committed)

	c.logf(report, "✅ cycle %s: %d committed, %d rejected, %d/%d sources failed",
		report.Status, report.Committed, report.CommitFailures, report.SourcesFailed, report.SourcesAttempted)
	c.state.Finish(report)
	return report, nil
}

// fetchAll runs the adapters on a bounded pool and classifies items as they arrive.
// Only this goroutine touches the batch.
func (c *Coordinator) fetchAll(ctx context.Context, report *types.CycleReport, batch *deduplication.Batch, fetchedAt time.Time) {
	if len(c.adapters) == 0 {
		return
	}
	outcomes := make([]types.SourceOutcome, len(c.adapters))
	items := make(chan sourced, 64)

	var g errgroup.Group
	g.SetLimit(c.workers)
	go func() {
		for i, a := range c.adapters {
			g.Go(func() error {
				outcomes[i] = c.fetchSource(ctx, i, a, items)
				return nil
			})
		}
		g.Wait()
		close(items)
	}()

	invalid := make([]int, len(c.adapters))
	c.state.SetState(types.StateProcessing)
	for it := range items {
		sourceID := c.adapters[it.idx].ID()
		article, err := c.normalizer.NormalizeAt(it.item, sourceID, fetchedAt)
		if err != nil {
			report.ArticlesInvalid++
			invalid[it.idx]++
			log.Printf("⚠️ [%s] dropped item %q: %v", sourceID, it.item.URL, err)
			continue
		}
		if c.keywordFilter && !normalize.Relevant(article) {
			report.ArticlesFiltered++
			continue
		}
		batch.Add(article)
	}

	for i := range outcomes {
		o := &outcomes[i]
		if invalid[i] > 0 {
			o.Skipped += invalid[i]
			if o.Status == types.SourceSuccess {
				o.Status = types.SourcePartial
			}
		}
		if o.Status == types.SourceFailed {
			report.SourcesFailed++
		}
	}
	report.Sources = outcomes
}

func (c *Coordinator) fetchSource(ctx context.Context, idx int, a sites.SiteAdapter, items chan<- sourced) types.SourceOutcome {
	out := types.SourceOutcome{SourceID: a.ID(), Status: types.SourceSuccess}

	seq, err := a.Fetch(ctx)
	if err != nil {
		out.Status = types.SourceFailed
		out.Error = err.Error()
		log.Printf("❌ [%s] %v", a.ID(), err)
		c.state.AddLog(fmt.Sprintf("❌ [%s] fetch failed: %v", a.ID(), err))
		return out
	}

	for item, err := range seq {
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			out.Skipped++
			log.Printf("⚠️ [%s] %v", a.ID(), err)
			continue
		}
		select {
		case items <- sourced{idx: idx, item: item}:
			out.Items++
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	if ctx.Err() != nil {
		out.Status = types.SourceFailed
		out.Error = ctx.Err().Error()
		return out
	}
	if out.Skipped > 0 {
		out.Status = types.SourcePartial
	}
	log.Printf("✅ [%s] %d items, %d skipped", a.ID(), out.Items, out.Skipped)
	return out
}

// commit writes the batch in one call. Rejected rows are reported, not retried.
func (c *Coordinator) commit(ctx context.Context, report *types.CycleReport, articles []types.Article) ([]types.Article, error) {
	outcomes, err := c.store.UpsertBatch(ctx, articles)
	if err != nil {
		for _, a := range articles {
			report.FailedKeys = append(report.FailedKeys, a.Key())
		}
		report.CommitFailures = len(articles)
		return nil, &types.StoreError{Op: "upsert batch", Cause: err}
	}

	status := make(map[types.ArticleKey]types.RowOutcome, len(outcomes))
	for _, o := range outcomes {
		status[o.Key] = o
	}
	committed := make([]types.Article, 0, len(articles))
	for _, a := range articles {
		o, ok := status[a.Key()]
		switch {
		case ok && o.Status == types.RowCommitted:
			committed = append(committed, a)
		case ok:
			report.FailedKeys = append(report.FailedKeys, a.Key())
			log.Printf("⚠️ [%s] rejected by store: %s", a.Key(), o.Reason)
		default:
			report.FailedKeys = append(report.FailedKeys, a.Key())
			log.Printf("⚠️ [%s] missing from store response", a.Key())
		}
	}
	report.Committed = len(committed)
	report.CommitFailures = len(articles) - len(committed)
	return committed, nil
}

func (c *Coordinator) publish(ctx context.Context, report *types.CycleReport, committed []types.Article) {
	for _, p := range c.publishers {
		if err := p.Publish(ctx, report, committed); err != nil {
			log.Printf("⚠️ publish %T: %v", p, err)
			c.state.AddLog(fmt.Sprintf("⚠️ publish failed: %v", err))
		}
	}
}

func (c *Coordinator) fail(report *types.CycleReport, err error) (*types.CycleReport, error) {
	report.Status = types.CycleFailed
	report.Error = err.Error()
	report.FinishedAt = c.now()
	log.Printf("❌ [cycle %s] %v", shortID(report.CycleID), err)
	c.state.SetError(err)
	c.state.Finish(report)
	return report, err
}

// cycleClock returns the FetchedAt of this cycle. It never goes backwards.
func (c *Coordinator) cycleClock() time.Time {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()
	t := c.now()
	if t.Before(c.lastFetched) {
		t = c.lastFetched
	}
	c.lastFetched = t
	return t
}

func (c *Coordinator) logf(report *types.CycleReport, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[cycle %s] %s", shortID(report.CycleID), msg)
	c.state.AddLog(msg)
}

func cycleStatus(r *types.CycleReport) string {
	if r.SourcesAttempted > 0 && r.SourcesFailed == r.SourcesAttempted {
		return types.CycleFailed
	}
	if r.SourcesFailed > 0 || r.CommitFailures > 0 {
		return types.CyclePartial
	}
	for _, s := range r.Sources {
		if s.Status != types.SourceSuccess {
			return types.CyclePartial
		}
	}
	return types.CycleSucceeded
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
