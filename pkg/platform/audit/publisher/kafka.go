// Package publisher fans persisted audit records out to Kafka for downstream
// consumers. The ledger in Postgres stays the source of truth.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "catalog/pkg/platform/audit"
)

// KafkaPublisher produces one message per audit record, keyed by actor id so a
// single actor's records stay ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a producer to brokers. Topics are auto-created.
func NewKafka(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: no brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

// Publish produces rec synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, rec *audit.Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	msg := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(rec.ActorID, 10)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(rec.Action)},
			{Key: "request_id", Value: []byte(rec.RequestID)},
		},
	}
	if err := p.client.ProduceSync(ctx, msg).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record %d: %w", rec.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
