package model

import (
	"time"
)

// SessionStatus defines the lifecycle state of an attendance session.
type SessionStatus string

const (
	StatusOpen   SessionStatus = "OPEN"
	StatusClosed SessionStatus = "CLOSED"
)

// Role is the authenticated role supplied by the identity collaborator.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Session is one employee's continuous clocked-in interval. A session is
// created OPEN by clock-in and transitions exactly once to CLOSED; closed
// sessions are never reopened or deleted.
type Session struct {
	ID           string        `json:"id"`
	EmployeeID   string        `json:"employeeId"`
	ClockInTime  time.Time     `json:"clockInTime"`
	ClockOutTime *time.Time    `json:"clockOutTime,omitempty"`
	Status       SessionStatus `json:"status"`
	HoursWorked  float64       `json:"hoursWorked"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Employee is the record whose mutations feed the change event stream.
type Employee struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	Department  string     `json:"department,omitempty"`
	Position    string     `json:"position,omitempty"`
	HireDate    *time.Time `json:"hireDate,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SessionFilter narrows a session query. Zero-valued fields are ignored;
// set fields combine conjunctively. An open date bound is a half-interval
// over the clock-in time.
type SessionFilter struct {
	EmployeeID string
	Status     SessionStatus
	StartDate  *time.Time
	EndDate    *time.Time
}
