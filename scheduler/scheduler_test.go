package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ainewsbot/types"
)

type blockingRunner struct {
	started  chan struct{}
	runs     atomic.Int32
	inFlight atomic.Bool
}

func (r *blockingRunner) RunCycle(ctx context.Context) (*types.CycleReport, error) {
	r.runs.Add(1)
	r.inFlight.Store(true)
	defer r.inFlight.Store(false)
	r.started <- struct{}{}
	<-ctx.Done()
	return &types.CycleReport{Status: types.CycleFailed}, ctx.Err()
}

func (r *blockingRunner) InProgress() bool { return r.inFlight.Load() }

func TestTriggerNeverOverlaps(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}, 1)}
	reports := make(chan error, 1)
	s := New(r, Options{OnReport: func(_ string, _ *types.CycleReport, err error) { reports <- err }})

	if !s.Trigger("manual") {
		t.Fatalf("first trigger refused")
	}
	<-r.started
	if s.Trigger("manual") {
		t.Fatalf("second trigger accepted while a cycle runs")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-reports; !errors.Is(err, context.Canceled) {
		t.Fatalf("cycle err = %v, want context.Canceled", err)
	}
	if r.runs.Load() != 1 {
		t.Fatalf("runs = %d, want 1", r.runs.Load())
	}
	if s.Trigger("manual") {
		t.Fatalf("trigger accepted after Stop")
	}
}

type quickRunner struct{ runs atomic.Int32 }

func (r *quickRunner) RunCycle(context.Context) (*types.CycleReport, error) {
	r.runs.Add(1)
	return &types.CycleReport{Status: types.CycleSucceeded}, nil
}

func (r *quickRunner) InProgress() bool { return false }

func TestTriggerAgainAfterCycleEnds(t *testing.T) {
	r := &quickRunner{}
	done := make(chan struct{}, 2)
	s := New(r, Options{OnReport: func(string, *types.CycleReport, error) { done <- struct{}{} }})
	defer s.Stop(context.Background())

	for i := range 2 {
		if !s.Trigger("manual") {
			t.Fatalf("trigger %d refused", i)
		}
		<-done
	}
	if r.runs.Load() != 2 {
		t.Fatalf("runs = %d", r.runs.Load())
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(&quickRunner{}, Options{})
	defer s.Stop(context.Background())
	if err := s.Start("every now and then"); err == nil {
		t.Fatalf("expected error for bad spec")
	}
}

func TestStartSchedulesNextRun(t *testing.T) {
	s := New(&quickRunner{}, Options{Location: time.UTC})
	defer s.Stop(context.Background())

	if !s.Next().IsZero() {
		t.Fatalf("Next before Start should be zero")
	}
	if err := s.Start("0 */3 * * *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	next := s.Next()
	if next.IsZero() || next.Minute() != 0 || next.Hour()%3 != 0 {
		t.Fatalf("Next = %v", next)
	}
}
