package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeRecordProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeRecordProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		if f.err != nil {
			results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
			continue
		}
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r})
	}
	return results
}

func TestPublishChangeKeysRecordByEmployee(t *testing.T) {
	producer := &fakeRecordProducer{}
	p := NewKafkaChangePublisher(producer, "employee-data-changes")

	event := ChangeEvent{
		EventType: EventUserUpdated,
		UserID:    "emp-1",
		UserData:  &model.Employee{ID: "emp-1", Email: "jo@example.com"},
		ChangedBy: "admin-1",
		Timestamp: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC),
		Changes: []FieldChange{
			{Field: "department", OldValue: "Assembly", NewValue: "Packaging"},
		},
	}
	require.NoError(t, p.PublishChange(context.Background(), event))

	require.Len(t, producer.records, 1)
	record := producer.records[0]
	assert.Equal(t, "employee-data-changes", record.Topic)

	// Records sharing a key share a partition; keying on the employee ID is
	// what keeps one employee's events in emission order for consumers.
	assert.Equal(t, "emp-1", string(record.Key))

	var decoded ChangeEvent
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, event.EventType, decoded.EventType)
	assert.Equal(t, event.UserID, decoded.UserID)
	assert.Equal(t, event.ChangedBy, decoded.ChangedBy)
	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))
	require.NotNil(t, decoded.UserData)
	assert.Equal(t, "jo@example.com", decoded.UserData.Email)
	require.Len(t, decoded.Changes, 1)
	assert.Equal(t, "department", decoded.Changes[0].Field)
	assert.Equal(t, "Assembly", decoded.Changes[0].OldValue)
	assert.Equal(t, "Packaging", decoded.Changes[0].NewValue)
}

func TestPublishChangeCountsExhaustedRetries(t *testing.T) {
	producer := &fakeRecordProducer{err: errors.New("broker unreachable")}
	p := NewKafkaChangePublisher(producer, "employee-data-changes")
	p.maxRetries = 0 // keep the test fast

	before := testutil.ToFloat64(metrics.ChangePublishFailures)

	err := p.PublishChange(context.Background(), ChangeEvent{
		EventType: EventUserCreated,
		UserID:    "emp-1",
		Timestamp: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Empty(t, producer.records)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ChangePublishFailures))
}
