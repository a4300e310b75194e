// Package changelog persists the append-only audit trail of employee record
// changes and exposes read access over it. Entries are only ever inserted;
// nothing updates or deletes them in normal operation.
package changelog

import (
	"context"
	"time"

	"attendance.service/internal/ports/messaging"
)

// Entry is one persisted change event plus ingestion metadata.
type Entry struct {
	ID         string                    `json:"id"`
	EventType  messaging.ChangeEventType `json:"eventType"`
	UserID     string                    `json:"userId"`
	UserData   map[string]any            `json:"userData,omitempty"`
	Changes    []messaging.FieldChange   `json:"changes,omitempty"`
	ChangedBy  string                    `json:"changedBy,omitempty"`
	OccurredAt time.Time                 `json:"occurredAt"`
	IngestedAt time.Time                 `json:"ingestedAt"`
}

// Filter narrows a change-log listing; zero values are ignored.
type Filter struct {
	UserID    string
	EventType messaging.ChangeEventType
	Limit     int
	Offset    int
}

// Store is the contract for change-log persistence.
//
// Append must be idempotent under exact redelivery: the dedup key is
// (userId, eventType, occurredAt), and a second append with the same key
// reports inserted=false instead of producing a duplicate row.
type Store interface {
	Append(ctx context.Context, entry *Entry) (inserted bool, err error)
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
