// Package kafka forwards audit events to a Kafka topic so downstream
// compliance tooling can consume the trail without querying the database.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	audit "fecgate/pkg/platform/audit"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Sink produces audit events to a single topic, keyed by contributor so a
// contributor's events stay ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewSink connects to the given brokers. Returns nil when no brokers are
// configured, which callers treat as "forwarding disabled".
func NewSink(brokers []string, topic string, logger *slog.Logger) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to kafka: %w", err)
	}
	return &Sink{client: client, topic: topic, logger: logger}, nil
}

// Forward produces the event asynchronously. Delivery failures are logged,
// never surfaced: the database store is the system of record and the topic is
// a best-effort feed.
func (s *Sink) Forward(ctx context.Context, event audit.Event) {
	if s == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshaling audit event", "error", err)
		return
	}
	record := &kgo.Record{
		Key:   []byte(event.ContributorID.String()),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && s.logger != nil {
			s.logger.Error("producing audit event",
				"action", event.Action,
				"error", err,
			)
		}
	})
}

// Close flushes buffered records and releases the client.
func (s *Sink) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("flushing audit sink: %w", err)
	}
	s.client.Close()
	return nil
}
