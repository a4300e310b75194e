package kafka

import (
	"context"

	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Handler processes one consumed record. Returning an error means the record
// could not be settled; the consumer logs it and moves on rather than
// stalling the partition, so handlers must dead-letter anything they cannot
// afford to lose before returning.
type Handler interface {
	Handle(ctx context.Context, record *kgo.Record) error
}

// Consumer is the Kafka counterpart of the SQS worker: a single consumer
// group member polling one topic and handing records to a Handler. Offsets
// are committed only after the poll batch is handled, giving at-least-once
// delivery; records sharing a key arrive in order because they share a
// partition.
type Consumer struct {
	client  *kgo.Client
	handler Handler
}

// NewConsumer joins the consumer group and subscribes to the topic.
func NewConsumer(brokers []string, topic, groupID string, handler Handler) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(groupID),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, handler: handler}, nil
}

// Start runs the poll loop until the context is canceled.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Msg("Kafka consumer started. Polling for records...")

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			log.Info().Msg("Kafka consumer shutting down...")
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			log.Error().Err(err).Str("topic", topic).Int32("partition", partition).Msg("Fetch error")
		})

		fetches.EachRecord(func(record *kgo.Record) {
			c.handleRecord(ctx, record)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to commit offsets")
		}
	}
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}

func (c *Consumer) handleRecord(ctx context.Context, record *kgo.Record) {
	ctx, span := telemetry.StartSpanFromKafkaRecord(ctx, record)
	defer span.End()

	ctx = logger.EnrichContextWithLogger(ctx)

	if err := c.handler.Handle(ctx, record); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("key", string(record.Key)).
			Int64("offset", record.Offset).
			Msg("Record handler failed; skipping record")
	}
}
