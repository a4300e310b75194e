package changelog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/ports/messaging"
	"attendance.service/pkg/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Processor turns change-event records into change-log entries. One bad
// event must never stall its partition: malformed payloads go straight to
// the dead-letter queue, and store failures get a bounded number of retries
// before the event is dead-lettered and skipped. The circuit breaker keeps
// a struggling database from being hammered by the retry loop.
type Processor struct {
	store       Store
	deadLetter  *messaging.DeadLetter
	cb          *gobreaker.CircuitBreaker
	maxAttempts uint64
}

func NewProcessor(store Store, deadLetter *messaging.DeadLetter) *Processor {
	settings := gobreaker.Settings{
		Name:        "changelog-store",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &Processor{
		store:       store,
		deadLetter:  deadLetter,
		cb:          gobreaker.NewCircuitBreaker(settings),
		maxAttempts: 3,
	}
}

// Handle processes one Kafka record. It always returns nil once the record's
// fate is settled (persisted, deduplicated or dead-lettered) so the consumer
// can commit and move on.
func (p *Processor) Handle(ctx context.Context, record *kgo.Record) error {
	var event messaging.ChangeEvent
	if err := json.Unmarshal(record.Value, &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Malformed change event, sending to dead letter queue")
		p.sendToDeadLetter(ctx, record.Value, "malformed payload: "+err.Error())
		return nil
	}

	if err := validate(event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Invalid change event, sending to dead letter queue")
		p.sendToDeadLetter(ctx, record.Value, err.Error())
		return nil
	}

	entry := toEntry(event)

	var inserted bool
	write := func() error {
		_, err := p.cb.Execute(func() (interface{}, error) {
			var err error
			inserted, err = p.store.Append(ctx, &entry)
			return nil, err
		})
		if errors.Is(err, gobreaker.ErrOpenState) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newStoreBackOff(), p.maxAttempts-1), ctx)
	if err := backoff.Retry(write, policy); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("employee_id", event.UserID).
			Msg("Change log write failed after retries, sending to dead letter queue")
		p.sendToDeadLetter(ctx, record.Value, "store write failed: "+err.Error())
		return nil
	}

	if !inserted {
		metrics.ChangeEventsDeduplicated.Inc()
		log.Ctx(ctx).Debug().
			Str("employee_id", event.UserID).
			Str("event_type", string(event.EventType)).
			Msg("Duplicate change event dropped")
		return nil
	}

	metrics.ChangeEventsProcessed.Inc()
	log.Ctx(ctx).Info().
		Str("employee_id", event.UserID).
		Str("event_type", string(event.EventType)).
		Int("changes", len(event.Changes)).
		Msg("Change event persisted")
	return nil
}

func (p *Processor) sendToDeadLetter(ctx context.Context, payload []byte, reason string) {
	metrics.ChangeEventsDeadLettered.Inc()
	if err := p.deadLetter.Send(ctx, payload, reason); err != nil {
		// Last resort: the event survives only in this log line.
		log.Ctx(ctx).Error().Err(err).Str("reason", reason).Msg("Dead letter delivery failed")
	}
}

func validate(event messaging.ChangeEvent) error {
	if event.UserID == "" {
		return fmt.Errorf("change event missing userId")
	}
	switch event.EventType {
	case messaging.EventUserCreated, messaging.EventUserUpdated, messaging.EventUserDeleted:
		return nil
	default:
		return fmt.Errorf("unknown event type %q", event.EventType)
	}
}

func toEntry(event messaging.ChangeEvent) Entry {
	entry := Entry{
		EventType:  event.EventType,
		UserID:     event.UserID,
		Changes:    event.Changes,
		ChangedBy:  event.ChangedBy,
		OccurredAt: event.Timestamp,
	}
	if event.UserData != nil {
		// Store the snapshot as loose JSON; the log outlives schema changes
		// on the employee record.
		raw, err := json.Marshal(event.UserData)
		if err == nil {
			_ = json.Unmarshal(raw, &entry.UserData)
		}
	}
	return entry
}

func newStoreBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}
