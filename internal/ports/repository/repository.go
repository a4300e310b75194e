package repository

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/core/model"
)

// Invariant violations surfaced by the stores. The store is the single
// component allowed to decide these; callers must not pre-check and trust
// the answer across requests.
var (
	ErrAlreadyClockedIn = errors.New("employee is already clocked in")
	ErrNotClockedIn     = errors.New("employee is not clocked in")
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateEmail   = errors.New("email is already registered")
)

// SessionRepository is the contract for attendance session storage.
//
// CreateOpen and CloseOpen are atomic conditional operations: two concurrent
// CreateOpen calls for one employee must never both succeed, and CloseOpen
// must only succeed against an existing OPEN session. Implementations enforce
// this at the storage layer (unique constraint or serialized writes), not by
// reading first.
type SessionRepository interface {
	CreateOpen(ctx context.Context, employeeID, notes string, clockIn time.Time) (*model.Session, error)
	CloseOpen(ctx context.Context, employeeID, notes string, clockOut time.Time) (*model.Session, error)
	FindOpen(ctx context.Context, employeeID string) (*model.Session, error)
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Query(ctx context.Context, filter model.SessionFilter) ([]model.Session, error)
}

// EmployeeRepository is the contract for employee record storage.
type EmployeeRepository interface {
	Create(ctx context.Context, e *model.Employee) error
	FindByID(ctx context.Context, id string) (*model.Employee, error)
	FindAll(ctx context.Context) ([]model.Employee, error)
	Update(ctx context.Context, e *model.Employee) error
}
