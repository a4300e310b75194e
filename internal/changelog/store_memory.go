package changelog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is the test double for the change log.
type InMemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	seen    map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[string]struct{})}
}

func (s *InMemoryStore) Append(ctx context.Context, entry *Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.UserID + "|" + string(entry.EventType) + "|" + entry.OccurredAt.UTC().Format(time.RFC3339Nano)
	if _, dup := s.seen[key]; dup {
		return false, nil
	}
	s.seen[key] = struct{}{}

	stored := *entry
	stored.ID = uuid.NewString()
	stored.IngestedAt = time.Now().UTC()
	s.entries = append(s.entries, stored)
	return true, nil
}

func (s *InMemoryStore) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Entry
	// entries is append-only, so walking backwards yields newest first.
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		matched = append(matched, e)
	}

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *InMemoryStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, _, err := s.List(ctx, Filter{Limit: limit})
	return entries, err
}
