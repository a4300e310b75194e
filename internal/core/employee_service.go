package core

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EmployeeService owns employee record mutations. Every committed mutation
// is followed by a change event on the Kafka topic; the write and the
// publish are deliberately not atomic, so a publish failure degrades the
// audit trail but never rolls back or fails the mutation.
type EmployeeService struct {
	repo      repository.EmployeeRepository
	publisher messaging.ChangePublisher
}

func NewEmployeeService(repo repository.EmployeeRepository, publisher messaging.ChangePublisher) *EmployeeService {
	return &EmployeeService{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateEmployeeInput carries the caller-supplied fields for a new record.
type CreateEmployeeInput struct {
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	PhoneNumber string     `json:"phoneNumber"`
	Department  string     `json:"department"`
	Position    string     `json:"position"`
	HireDate    *time.Time `json:"hireDate"`
}

// UpdateEmployeeInput carries a partial update; nil fields are left untouched.
type UpdateEmployeeInput struct {
	Email       *string    `json:"email"`
	FirstName   *string    `json:"firstName"`
	LastName    *string    `json:"lastName"`
	PhoneNumber *string    `json:"phoneNumber"`
	Department  *string    `json:"department"`
	Position    *string    `json:"position"`
	HireDate    *time.Time `json:"hireDate"`
}

func (s *EmployeeService) Create(ctx context.Context, in CreateEmployeeInput, changedBy string) (*model.Employee, error) {
	employee := &model.Employee{
		ID:          uuid.NewString(),
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Department:  in.Department,
		Position:    in.Position,
		HireDate:    in.HireDate,
		IsActive:    true,
	}

	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.ChangeEvent{
		EventType: messaging.EventUserCreated,
		UserID:    employee.ID,
		UserData:  employee,
		ChangedBy: changedBy,
		Timestamp: time.Now().UTC(),
	})
	return employee, nil
}

func (s *EmployeeService) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EmployeeService) FindAll(ctx context.Context) ([]model.Employee, error) {
	return s.repo.FindAll(ctx)
}

// Update applies a partial update and publishes the field-level diff. A
// no-op update (all supplied values equal to the stored ones) publishes
// nothing.
func (s *EmployeeService) Update(ctx context.Context, id string, in UpdateEmployeeInput, changedBy string) (*model.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *employee
	applyUpdate(&updated, in)

	changes := diffEmployees(employee, &updated)
	if len(changes) == 0 {
		return employee, nil
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.ChangeEvent{
		EventType: messaging.EventUserUpdated,
		UserID:    updated.ID,
		UserData:  &updated,
		ChangedBy: changedBy,
		Timestamp: time.Now().UTC(),
		Changes:   changes,
	})
	return &updated, nil
}

// Deactivate soft-deletes the record. The event is an UPDATE carrying the
// isActive transition; nothing is ever hard-deleted.
func (s *EmployeeService) Deactivate(ctx context.Context, id, changedBy string) (*model.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	employee.IsActive = false
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.ChangeEvent{
		EventType: messaging.EventUserUpdated,
		UserID:    employee.ID,
		UserData:  employee,
		ChangedBy: changedBy,
		Timestamp: time.Now().UTC(),
		Changes: []messaging.FieldChange{
			{Field: "isActive", OldValue: true, NewValue: false},
		},
	})
	return employee, nil
}

// publish runs after the owning write committed. The publisher already
// retries, counts and logs failures, so the error stops here.
func (s *EmployeeService) publish(ctx context.Context, event messaging.ChangeEvent) {
	if err := s.publisher.PublishChange(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("event_type", string(event.EventType)).
			Str("employee_id", event.UserID).
			Msg("Change event lost; mutation remains committed")
	}
}

func applyUpdate(e *model.Employee, in UpdateEmployeeInput) {
	if in.Email != nil {
		e.Email = *in.Email
	}
	if in.FirstName != nil {
		e.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		e.LastName = *in.LastName
	}
	if in.PhoneNumber != nil {
		e.PhoneNumber = *in.PhoneNumber
	}
	if in.Department != nil {
		e.Department = *in.Department
	}
	if in.Position != nil {
		e.Position = *in.Position
	}
	if in.HireDate != nil {
		e.HireDate = in.HireDate
	}
}

// diffEmployees compares every mutable field and keeps only real changes.
func diffEmployees(old, new *model.Employee) []messaging.FieldChange {
	var changes []messaging.FieldChange
	add := func(field string, oldValue, newValue any) {
		changes = append(changes, messaging.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue})
	}

	if old.Email != new.Email {
		add("email", old.Email, new.Email)
	}
	if old.FirstName != new.FirstName {
		add("firstName", old.FirstName, new.FirstName)
	}
	if old.LastName != new.LastName {
		add("lastName", old.LastName, new.LastName)
	}
	if old.PhoneNumber != new.PhoneNumber {
		add("phoneNumber", old.PhoneNumber, new.PhoneNumber)
	}
	if old.Department != new.Department {
		add("department", old.Department, new.Department)
	}
	if old.Position != new.Position {
		add("position", old.Position, new.Position)
	}
	if !equalDates(old.HireDate, new.HireDate) {
		add("hireDate", old.HireDate, new.HireDate)
	}
	if old.IsActive != new.IsActive {
		add("isActive", old.IsActive, new.IsActive)
	}
	return changes
}

func equalDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
