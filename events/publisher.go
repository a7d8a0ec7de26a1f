// Package events publishes committed articles and cycle reports to Kafka and
// consumes cycle trigger requests.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ainewsbot/config"
	"ainewsbot/types"

	"github.com/IBM/sarama"
)

// Publisher sends one message per committed article plus one report message per cycle.
type Publisher struct {
	producer      sarama.SyncProducer
	articlesTopic string
	reportsTopic  string
}

// NewPublisher connects a synchronous producer to the configured brokers.
func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	log.Printf("✅ Kafka publisher ready (articles: %s, reports: %s)", cfg.ArticlesTopic, cfg.ReportsTopic)
	return NewPublisherWithProducer(producer, cfg.ArticlesTopic, cfg.ReportsTopic), nil
}

// NewPublisherWithProducer wraps an existing producer.
func NewPublisherWithProducer(p sarama.SyncProducer, articlesTopic, reportsTopic string) *Publisher {
	return &Publisher{producer: p, articlesTopic: articlesTopic, reportsTopic: reportsTopic}
}

// Publish sends the batch in one SendMessages call.
func (p *Publisher) Publish(_ context.Context, report *types.CycleReport, committed []types.Article) error {
	msgs := make([]*sarama.ProducerMessage, 0, len(committed)+1)
	for _, a := range committed {
		value, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode article %s: %w", a.Key(), err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.articlesTopic,
			Key:   sarama.StringEncoder(a.Key().String()),
			Value: sarama.ByteEncoder(value),
		})
	}
	if report != nil {
		value, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.reportsTopic,
			Key:   sarama.StringEncoder(report.CycleID),
			Value: sarama.ByteEncoder(value),
		})
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := p.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("send %d kafka messages: %w", len(msgs), err)
	}
	log.Printf("📤 Published %d articles and the cycle report to Kafka", len(committed))
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
