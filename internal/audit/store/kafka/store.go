package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"courtbridge/internal/audit"
)

// Store publishes audit events to a Kafka topic so downstream compliance
// consumers can build their own views. Events are keyed by case id to keep
// per-case ordering within a partition.
type Store struct {
	client *kgo.Client
	topic  string
}

// New builds a Kafka-backed audit store.
func New(brokers []string, topic string) (*Store, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1 << 20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Store{client: client, topic: topic}, nil
}

// payload mirrors audit.Event with stable JSON field names for consumers.
type payload struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Action      string    `json:"action"`
	CaseID      string    `json:"case_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	Institution string    `json:"institution,omitempty"`
	FileID      string    `json:"file_id,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(payload{
		ID:          event.ID,
		OccurredAt:  event.Timestamp,
		Action:      event.Action,
		CaseID:      event.CaseID,
		ActorID:     event.ActorID,
		Institution: event.Institution,
		FileID:      event.FileID,
		FileName:    event.FileName,
		Reason:      event.Reason,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.CaseID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Store) Close() {
	s.client.Close()
}
