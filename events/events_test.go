package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"ainewsbot/types"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return cfg
}

func TestPublishSendsArticlesThenReport(t *testing.T) {
	mp := mocks.NewSyncProducer(t, producerConfig())
	articleCheck := func(val []byte) error {
		var a types.Article
		if err := json.Unmarshal(val, &a); err != nil {
			return err
		}
		if a.SourceID != "ledgeai" {
			return fmt.Errorf("unexpected article %+v", a)
		}
		return nil
	}
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(articleCheck)
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(articleCheck)
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var r types.CycleReport
		if err := json.Unmarshal(val, &r); err != nil {
			return err
		}
		if r.CycleID != "cycle-1" || r.Committed != 2 {
			return fmt.Errorf("unexpected report %+v", r)
		}
		return nil
	})

	p := NewPublisherWithProducer(mp, "articles", "reports")
	committed := []types.Article{
		{SourceID: "ledgeai", ExternalID: "1", Title: "AI", FetchedAt: time.Now()},
		{SourceID: "ledgeai", ExternalID: "2", Title: "DX", FetchedAt: time.Now()},
	}
	report := &types.CycleReport{CycleID: "cycle-1", Committed: 2}
	if err := p.Publish(context.Background(), report, committed); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPublishReportsProducerError(t *testing.T) {
	mp := mocks.NewSyncProducer(t, producerConfig())
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewPublisherWithProducer(mp, "articles", "reports")
	err := p.Publish(context.Background(), &types.CycleReport{CycleID: "c"}, nil)
	if err == nil {
		t.Fatalf("expected producer error")
	}
	p.Close()
}

func TestTriggerHandler(t *testing.T) {
	var reasons []string
	busy := false
	h := NewTriggerHandler(func(reason string) bool {
		reasons = append(reasons, reason)
		return !busy
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		msg      string
		busy     bool
		wantMark bool
		wantCall bool
	}{
		{"valid", `{"reason":"manual"}`, false, true, true},
		{"busy still marked", `{"reason":"again"}`, true, true, true},
		{"malformed", `{reason`, false, true, false},
		{"missing reason", `{}`, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(reasons)
			busy = tt.busy
			mark, err := h.HandleMessage(ctx, []byte(tt.msg))
			if err != nil {
				t.Fatalf("HandleMessage: %v", err)
			}
			if mark != tt.wantMark {
				t.Fatalf("mark = %v, want %v", mark, tt.wantMark)
			}
			if called := len(reasons) > before; called != tt.wantCall {
				t.Fatalf("trigger called = %v, want %v", called, tt.wantCall)
			}
		})
	}
	if reasons[0] != "kafka:manual" {
		t.Fatalf("reason = %q", reasons[0])
	}
}

func TestTypedHandlerLeavesFailedMessagesUnmarked(t *testing.T) {
	h := &TypedMessageHandler[TriggerMessage]{
		Process: func(context.Context, *TriggerMessage) error { return errors.New("downstream unavailable") },
	}
	mark, err := h.HandleMessage(context.Background(), []byte(`{"reason":"x"}`))
	if err == nil || mark {
		t.Fatalf("mark=%v err=%v, want unmarked error", mark, err)
	}
}
