package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"attendance.service/pkg/metrics"
	"attendance.service/pkg/telemetry"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ChangePublisher defines the output port for publishing employee change events.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event ChangeEvent) error
}

// RecordProducer is the slice of the franz-go client the publisher sends through.
type RecordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaChangePublisher publishes change events to a partitioned Kafka topic,
// keyed by employee ID so per-employee ordering survives partitioning.
// Delivery is at-least-once: transient broker failures are retried with
// exponential backoff, and a retry after an unacknowledged send may duplicate.
type KafkaChangePublisher struct {
	client     RecordProducer
	topic      string
	maxRetries uint64
}

// NewKafkaChangePublisher builds a publisher on an existing franz-go client.
func NewKafkaChangePublisher(client RecordProducer, topic string) *KafkaChangePublisher {
	return &KafkaChangePublisher{
		client:     client,
		topic:      topic,
		maxRetries: 4,
	}
}

// NewKafkaClient creates the producer-side Kafka client.
func NewKafkaClient(brokers []string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1 << 20),
		kgo.AllowAutoTopicCreation(),
	)
}

// PublishChange sends one event. It is called after the owning write has
// committed; a failure here degrades the audit trail but must not undo the
// mutation, so callers log the returned error instead of propagating it to
// the client request.
func (p *KafkaChangePublisher) PublishChange(ctx context.Context, event ChangeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("app.employeeId", event.UserID),
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", p.topic),
		)
	}

	record := &kgo.Record{
		Topic:   p.topic,
		Key:     []byte(event.UserID),
		Value:   body,
		Headers: telemetry.InjectKafkaHeaders(ctx),
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newPublishBackOff(), p.maxRetries), ctx)
	err = backoff.Retry(func() error {
		return p.client.ProduceSync(ctx, record).FirstErr()
	}, policy)
	if err != nil {
		metrics.ChangePublishFailures.Inc()
		log.Ctx(ctx).Error().Err(err).
			Str("event_type", string(event.EventType)).
			Str("employee_id", event.UserID).
			Msg("Failed to publish change event after retries")
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func newPublishBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}
