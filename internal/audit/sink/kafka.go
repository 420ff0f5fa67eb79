// Package sink provides secondary destinations for audit events. The primary
// store remains the system of record; sinks feed external consumers such as
// security monitoring pipelines.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"medledger/internal/audit"
)

// KafkaSink publishes audit events to a topic, fire-and-forget. Delivery
// failures are logged by the produce callback; they never block or fail the
// request path.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// kafkaPayload is the wire shape published to the topic.
type kafkaPayload struct {
	ID          string          `json:"id"`
	Action      string          `json:"action"`
	PerformedBy string          `json:"performed_by"`
	TargetUser  string          `json:"target_user,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	Timestamp   string          `json:"timestamp"`
	AnchorRef   string          `json:"anchor_ref,omitempty"`
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	responses, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create audit topic: %w", err)
	}
	for _, res := range responses {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create audit topic %s: %w", res.Topic, res.Err)
		}
	}

	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

// Publish produces the event asynchronously, keyed by the acting user so one
// actor's events stay ordered within a partition.
func (s *KafkaSink) Publish(ctx context.Context, event audit.Event) error {
	details, err := audit.EncodeDetails(event.Details)
	if err != nil {
		return err
	}

	payload := kafkaPayload{
		ID:          event.ID.String(),
		Action:      string(event.Action),
		PerformedBy: event.PerformedBy.String(),
		Details:     details,
		Timestamp:   event.Timestamp.Format(time.RFC3339Nano),
		AnchorRef:   event.AnchorRef,
	}
	if event.TargetUser != nil {
		payload.TargetUser = event.TargetUser.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(payload.PerformedBy),
		Value: value,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Warn("audit event delivery failed",
				"error", err,
				"topic", s.topic,
				"action", payload.Action,
			)
		}
	})
	return nil
}

// Close flushes outstanding records and releases the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		s.client.Close()
		return fmt.Errorf("flush audit sink: %w", err)
	}
	s.client.Close()
	return nil
}
