package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

// InMemorySessionRepository keeps sessions in a map guarded by one mutex.
// The mutex gives the same check-and-insert atomicity the Postgres partial
// unique index provides, which is what the service layer relies on.
type InMemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{sessions: make(map[string]*model.Session)}
}

func (r *InMemorySessionRepository) CreateOpen(ctx context.Context, employeeID, notes string, clockIn time.Time) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.openLocked(employeeID) != nil {
		return nil, ErrAlreadyClockedIn
	}

	s := &model.Session{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		ClockInTime: clockIn,
		Status:      model.StatusOpen,
		Notes:       notes,
		CreatedAt:   time.Now().UTC(),
	}
	r.sessions[s.ID] = s

	copied := *s
	return &copied, nil
}

func (r *InMemorySessionRepository) CloseOpen(ctx context.Context, employeeID, notes string, clockOut time.Time) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.openLocked(employeeID)
	if s == nil {
		return nil, ErrNotClockedIn
	}

	out := clockOut
	s.ClockOutTime = &out
	s.Status = model.StatusClosed
	s.HoursWorked = math.Round(clockOut.Sub(s.ClockInTime).Hours()*100) / 100
	if notes != "" {
		if s.Notes == "" {
			s.Notes = notes
		} else {
			s.Notes = s.Notes + ". Clock-out notes: " + notes
		}
	}

	copied := *s
	return &copied, nil
}

func (r *InMemorySessionRepository) FindOpen(ctx context.Context, employeeID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.openLocked(employeeID)
	if s == nil {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *InMemorySessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *InMemorySessionRepository) Query(ctx context.Context, filter model.SessionFilter) ([]model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []model.Session
	for _, s := range r.sessions {
		if filter.EmployeeID != "" && s.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && s.ClockInTime.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && s.ClockInTime.After(*filter.EndDate) {
			continue
		}
		result = append(result, *s)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClockInTime.After(result[j].ClockInTime)
	})
	return result, nil
}

func (r *InMemorySessionRepository) openLocked(employeeID string) *model.Session {
	for _, s := range r.sessions {
		if s.EmployeeID == employeeID && s.Status == model.StatusOpen {
			return s
		}
	}
	return nil
}
