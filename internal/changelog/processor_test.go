package changelog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type capturingSender struct {
	mu       sync.Mutex
	messages [][]byte
}

func (c *capturingSender) SendMessage(ctx context.Context, destination string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, body)
	return nil
}

type failingStore struct {
	calls int
	err   error
}

func (f *failingStore) Append(ctx context.Context, entry *Entry) (bool, error) {
	f.calls++
	return false, f.err
}

func (f *failingStore) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	return nil, 0, nil
}

func (f *failingStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return nil, nil
}

func newProcessorFixture() (*Processor, *InMemoryStore, *capturingSender) {
	store := NewInMemoryStore()
	sender := &capturingSender{}
	p := NewProcessor(store, messaging.NewDeadLetter(sender, "dead-letter-queue"))
	return p, store, sender
}

func recordFor(t *testing.T, event messaging.ChangeEvent) *kgo.Record {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return &kgo.Record{Key: []byte(event.UserID), Value: value}
}

func TestHandlePersistsValidEvent(t *testing.T) {
	p, store, sender := newProcessorFixture()
	ctx := context.Background()

	event := messaging.ChangeEvent{
		EventType: messaging.EventUserUpdated,
		UserID:    "emp-1",
		UserData:  &model.Employee{ID: "emp-1", Email: "jo@example.com"},
		ChangedBy: "admin-1",
		Timestamp: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC),
		Changes: []messaging.FieldChange{
			{Field: "department", OldValue: "Assembly", NewValue: "Packaging"},
		},
	}

	require.NoError(t, p.Handle(ctx, recordFor(t, event)))

	entries, total, err := store.List(ctx, Filter{UserID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, messaging.EventUserUpdated, entries[0].EventType)
	assert.Equal(t, "admin-1", entries[0].ChangedBy)
	assert.Equal(t, "jo@example.com", entries[0].UserData["email"])
	assert.Empty(t, sender.messages)
}

func TestHandleDropsRedeliveredDuplicate(t *testing.T) {
	p, store, sender := newProcessorFixture()
	ctx := context.Background()

	event := messaging.ChangeEvent{
		EventType: messaging.EventUserUpdated,
		UserID:    "emp-1",
		Timestamp: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Handle(ctx, recordFor(t, event)))
	require.NoError(t, p.Handle(ctx, recordFor(t, event)))

	_, total, err := store.List(ctx, Filter{UserID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, sender.messages)
}

func TestHandleDeadLettersMalformedPayload(t *testing.T) {
	p, store, sender := newProcessorFixture()
	ctx := context.Background()

	record := &kgo.Record{Value: []byte("{not json")}
	require.NoError(t, p.Handle(ctx, record))

	_, total, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	require.Len(t, sender.messages, 1)
	assert.Contains(t, string(sender.messages[0]), "malformed payload")
}

func TestHandleDeadLettersUnknownEventType(t *testing.T) {
	p, _, sender := newProcessorFixture()
	ctx := context.Background()

	event := messaging.ChangeEvent{
		EventType: "USER_EXPLODED",
		UserID:    "emp-1",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, p.Handle(ctx, recordFor(t, event)))

	require.Len(t, sender.messages, 1)
	assert.Contains(t, string(sender.messages[0]), "unknown event type")
}

func TestHandleDeadLettersAfterStoreFailure(t *testing.T) {
	store := &failingStore{err: errors.New("connection refused")}
	sender := &capturingSender{}
	p := NewProcessor(store, messaging.NewDeadLetter(sender, "dead-letter-queue"))
	p.maxAttempts = 1 // keep the test fast
	ctx := context.Background()

	event := messaging.ChangeEvent{
		EventType: messaging.EventUserCreated,
		UserID:    "emp-1",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, p.Handle(ctx, recordFor(t, event)))

	assert.Equal(t, 1, store.calls)
	require.Len(t, sender.messages, 1)
	assert.Contains(t, string(sender.messages[0]), "store write failed")
}
