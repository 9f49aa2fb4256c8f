// Package kafka ships audit events to a Kafka topic so retention and fan-out
// are handled outside the service. It satisfies audit.Store for the write
// path; reads stay on a queryable store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	id "tally/pkg/domain"
	audit "tally/pkg/platform/audit"
	"tally/pkg/platform/sentinel"
)

// Store produces audit events to a single topic, keyed by the subject user ID
// so a user's trail stays ordered within a partition.
type Store struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers and ensures the audit topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Store, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopics(ctx, 3, 1, nil, topic); err != nil {
		// Topic may already exist; only connection-level failures are fatal.
		if pingErr := client.Ping(ctx); pingErr != nil {
			client.Close()
			return nil, fmt.Errorf("kafka unreachable: %w", pingErr)
		}
	}

	return &Store{client: client, topic: topic}, nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID.String()),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListByUser is not served from Kafka; querying the trail goes through a
// queryable store or a downstream consumer.
func (s *Store) ListByUser(context.Context, id.UserID) ([]audit.Event, error) {
	return nil, sentinel.ErrUnavailable
}

func (s *Store) Close() {
	s.client.Close()
}
