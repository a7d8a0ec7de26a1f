// Package scheduler triggers ingestion cycles on a cron schedule or on demand,
// never running two at once.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"ainewsbot/types"

	"github.com/robfig/cron/v3"
)

// Runner runs one cycle at a time.
type Runner interface {
	RunCycle(ctx context.Context) (*types.CycleReport, error)
	InProgress() bool
}

// Options tunes a Scheduler.
type Options struct {
	// Location the cron spec is evaluated in; defaults to time.Local.
	Location *time.Location
	// OnReport is called after every triggered cycle.
	OnReport func(reason string, report *types.CycleReport, err error)
}

// Scheduler owns the cron instance and the context of the in-flight cycle.
//
// New creates it idle. Start registers the cron entry; Trigger may be called
// before or after Start. Stop stops the cron, cancels the running cycle and
// waits for it; afterwards Trigger always returns false.
type Scheduler struct {
	runner   Runner
	onReport func(string, *types.CycleReport, error)
	cron     *cron.Cron
	cronID   cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// New creates an idle scheduler around runner.
func New(runner Runner, opts Options) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:   runner,
		onReport: opts.OnReport,
		cron:     cron.New(cron.WithLocation(loc)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start schedules a cycle for every tick of spec (standard 5-field cron).
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("scheduler stopped")
	}

	id, err := s.cron.AddFunc(spec, func() {
		log.Println("⏰ Cron triggered: starting ingestion cycle")
		s.Trigger("cron")
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cronID = id
	s.cron.Start()
	log.Printf("✅ Cron job started with schedule: %s", spec)
	return nil
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	id := s.cronID
	s.mu.Unlock()
	if id == 0 {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Trigger starts a cycle in the background unless one is already running.
// It never queues and never blocks on the cycle.
func (s *Scheduler) Trigger(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if s.running || s.runner.InProgress() {
		log.Printf("⚠️ %s trigger skipped: a cycle is already running", reason)
		return false
	}
	s.running = true
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		report, err := s.runner.RunCycle(s.ctx)
		if err != nil {
			log.Printf("❌ %s cycle: %v", reason, err)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		if s.onReport != nil {
			s.onReport(reason, report, err)
		}
	}()
	return true
}

// Stop tears the scheduler down. It returns ctx.Err() if the running cycle
// does not finish in time.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("✅ Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
