package changelog

import (
	"context"

	"attendance.service/internal/ports/messaging"
)

// Service is the read surface over the change log.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListResult pairs a page of entries with the total match count.
type ListResult struct {
	Logs  []Entry `json:"logs"`
	Total int     `json:"total"`
}

// GetUserChangeLogs lists entries filtered by user and/or event type,
// newest first.
func (s *Service) GetUserChangeLogs(ctx context.Context, userID string, eventType messaging.ChangeEventType, limit, offset int) (ListResult, error) {
	logs, total, err := s.store.List(ctx, Filter{
		UserID:    userID,
		EventType: eventType,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Logs: logs, Total: total}, nil
}

// GetRecentChanges returns the last N entries across all employees.
func (s *Service) GetRecentChanges(ctx context.Context, limit int) ([]Entry, error) {
	return s.store.Recent(ctx, limit)
}
