package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"ainewsbot/config"

	"github.com/IBM/sarama"
)

// MessageHandler processes one consumed message.
// The message is marked only when shouldMark is true.
type MessageHandler interface {
	HandleMessage(ctx context.Context, message []byte) (shouldMark bool, err error)
}

// Consumer reads one topic as part of a consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	topic   string
	groupID string
	ready   chan bool
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Handler MessageHandler
}

func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}
	return &Consumer{
		group:   group,
		handler: cfg.Handler,
		topic:   cfg.Topic,
		groupID: cfg.GroupID,
		ready:   make(chan bool),
	}, nil
}

// Start consumes in the background until ctx is done. It returns once the
// first session is set up, or when ctx ends first.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &groupHandler{handler: c.handler, ready: c.ready}

	go func() {
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, sarama.ErrClosedConsumerGroup) {
					log.Println("Kafka consumer stopped")
					return
				}
				log.Printf("Error from Kafka consumer: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan bool)
		}
	}()

	go func() {
		for err := range c.group.Errors() {
			log.Printf("❌ Kafka consumer error: %v", err)
		}
	}()

	select {
	case <-c.ready:
		log.Printf("✅ Kafka consumer started (group: %s, topic: %s)", c.groupID, c.topic)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) Close() error {
	log.Println("Closing Kafka consumer...")
	return c.group.Close()
}

type groupHandler struct {
	handler MessageHandler
	ready   chan bool
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			log.Printf("📥 Received Kafka message: partition=%d, offset=%d", message.Partition, message.Offset)

			shouldMark, err := h.handler.HandleMessage(session.Context(), message.Value)
			if err != nil {
				log.Printf("❌ Failed to handle message: %v", err)
			}
			if shouldMark {
				session.MarkMessage(message, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// TypedMessageHandler decodes JSON messages into T before processing them.
type TypedMessageHandler[T any] struct {
	Validate func(msg *T) bool
	Process  func(ctx context.Context, msg *T) error
	// AlwaysMark marks messages that fail decoding or validation so they are skipped.
	AlwaysMark bool
}

func (h *TypedMessageHandler[T]) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var msg T
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("❌ Failed to unmarshal message: %v", err)
		return h.AlwaysMark, nil
	}
	if h.Validate != nil && !h.Validate(&msg) {
		return h.AlwaysMark, nil
	}
	if err := h.Process(ctx, &msg); err != nil {
		return false, err
	}
	return true, nil
}

// TriggerMessage asks for an ingestion cycle.
type TriggerMessage struct {
	Reason string `json:"reason"`
}

// NewTriggerHandler calls trigger for every well-formed trigger message.
// A trigger refused because a cycle is running is still marked: requests are not queued.
func NewTriggerHandler(trigger func(reason string) bool) *TypedMessageHandler[TriggerMessage] {
	return &TypedMessageHandler[TriggerMessage]{
		Validate: func(msg *TriggerMessage) bool {
			return strings.TrimSpace(msg.Reason) != ""
		},
		Process: func(_ context.Context, msg *TriggerMessage) error {
			if !trigger("kafka:" + msg.Reason) {
				log.Printf("⚠️ Kafka trigger %q ignored: cycle already running", msg.Reason)
			}
			return nil
		},
		AlwaysMark: true,
	}
}

// NewTriggerConsumer consumes the trigger topic.
func NewTriggerConsumer(cfg config.KafkaConfig, trigger func(reason string) bool) (*Consumer, error) {
	return NewConsumer(ConsumerConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.TriggerTopic,
		GroupID: cfg.GroupID,
		Handler: NewTriggerHandler(trigger),
	})
}
