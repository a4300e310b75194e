package core

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

// SessionStatus is the answer to "is this employee clocked in right now".
type SessionStatus struct {
	IsOpen  bool           `json:"isOpen"`
	Session *model.Session `json:"session,omitempty"`
}

// AttendanceService is the business logic for clock-in and clock-out. The
// uniqueness invariant (one OPEN session per employee) lives in the session
// store; this layer treats the store's verdict as authoritative instead of
// checking first and writing second.
type AttendanceService struct {
	repo     repository.SessionRepository
	producer messaging.EmailProducer
}

// NewAttendanceService wires up the session store and the email queue producer.
func NewAttendanceService(repo repository.SessionRepository, producer messaging.EmailProducer) *AttendanceService {
	return &AttendanceService{
		repo:     repo,
		producer: producer,
	}
}

// ClockIn opens a new session. Returns repository.ErrAlreadyClockedIn when
// an OPEN session already exists, including when a concurrent clock-in won
// the race.
func (s *AttendanceService) ClockIn(ctx context.Context, employeeID, notes string) (*model.Session, error) {
	return s.repo.CreateOpen(ctx, employeeID, notes, time.Now().UTC())
}

// ClockOut closes the employee's OPEN session, computing hours worked and
// appending notes. Returns repository.ErrNotClockedIn when nothing is open.
// The summary email is queued best-effort; a queue failure never fails the
// clock-out itself.
func (s *AttendanceService) ClockOut(ctx context.Context, employeeID, notes string) (*model.Session, error) {
	session, err := s.repo.CloseOpen(ctx, employeeID, notes, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	event := messaging.EmailEvent{
		SessionID:   session.ID,
		EmployeeID:  session.EmployeeID,
		HoursWorked: session.HoursWorked,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.producer.PublishEmail(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("employee_id", employeeID).Msg("Failed to queue clock-out summary email")
	}

	return session, nil
}

// GetCurrentStatus is a pure read with no side effects.
func (s *AttendanceService) GetCurrentStatus(ctx context.Context, employeeID string) (SessionStatus, error) {
	session, err := s.repo.FindOpen(ctx, employeeID)
	if err != nil {
		return SessionStatus{}, err
	}
	return SessionStatus{IsOpen: session != nil, Session: session}, nil
}

// Query returns sessions matching the filter, newest clock-in first. Each
// call reads a fresh snapshot.
func (s *AttendanceService) Query(ctx context.Context, filter model.SessionFilter) ([]model.Session, error) {
	return s.repo.Query(ctx, filter)
}

// FindSession fetches one session by its ID.
func (s *AttendanceService) FindSession(ctx context.Context, id string) (*model.Session, error) {
	return s.repo.FindByID(ctx, id)
}
