package messaging

import (
	"time"

	"attendance.service/internal/core/model"
)

// ChangeEventType mirrors the values on the employee-data-changes topic.
type ChangeEventType string

const (
	EventUserCreated ChangeEventType = "USER_CREATED"
	EventUserUpdated ChangeEventType = "USER_UPDATED"
	EventUserDeleted ChangeEventType = "USER_DELETED"
)

// FieldChange is one entry of a field-level diff.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// ChangeEvent describes one committed mutation of an employee record. It is
// keyed on UserID when produced so a consumer sees events for one employee
// in emission order.
type ChangeEvent struct {
	EventType ChangeEventType `json:"eventType"`
	UserID    string          `json:"userId"`
	UserData  *model.Employee `json:"userData,omitempty"`
	ChangedBy string          `json:"changedBy,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Changes   []FieldChange   `json:"changes,omitempty"`
}

// EmailEvent is the JSON payload sent via SQS for the email queue.
type EmailEvent struct {
	SessionID   string    `json:"sessionId"`
	EmployeeID  string    `json:"employeeId"`
	HoursWorked float64   `json:"hoursWorked"`
	OccurredAt  time.Time `json:"occurredAt"`
}
