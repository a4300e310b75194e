package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

// SessionRepositoryPG is the concrete implementation for a PostgreSQL database.
//
// The uniqueness invariant is carried by a partial unique index:
//
//	CREATE UNIQUE INDEX attendance_sessions_one_open
//	ON attendance_sessions (employee_id) WHERE status = 'OPEN';
//
// so a racing second clock-in loses at INSERT time, not at read time.
type SessionRepositoryPG struct {
	DB *sql.DB
}

// NewSessionRepository create new instance
func NewSessionRepository(db *sql.DB) SessionRepository {
	return &SessionRepositoryPG{DB: db}
}

const sessionColumns = `id, employee_id, clock_in_time, clock_out_time, status, COALESCE(hours_worked, 0), notes, created_at`

// CreateOpen inserts a new OPEN session. The partial unique index turns a
// concurrent duplicate into a unique violation, which we surface as
// ErrAlreadyClockedIn.
func (r *SessionRepositoryPG) CreateOpen(ctx context.Context, employeeID, notes string, clockIn time.Time) (*model.Session, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	query := `INSERT INTO attendance_sessions (id, employee_id, clock_in_time, status, notes)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING ` + sessionColumns

	row := r.DB.QueryRowContext(ctx, query, uuid.NewString(), employeeID, clockIn, model.StatusOpen, notes)
	s, err := scanSession(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyClockedIn
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// CloseOpen closes the employee's OPEN session in a single conditional
// UPDATE. Hours are computed and rounded in SQL so the whole close is one
// atomic statement; zero affected rows means there was nothing open.
func (r *SessionRepositoryPG) CloseOpen(ctx context.Context, employeeID, notes string, clockOut time.Time) (*model.Session, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	query := `UPDATE attendance_sessions
              SET clock_out_time = $2,
                  hours_worked = ROUND((EXTRACT(EPOCH FROM ($2::timestamptz - clock_in_time)) / 3600.0)::numeric, 2),
                  status = $3,
                  notes = CASE
                      WHEN $4 = '' THEN notes
                      WHEN notes = '' THEN $4
                      ELSE notes || '. Clock-out notes: ' || $4
                  END
              WHERE employee_id = $1 AND status = $5
              RETURNING ` + sessionColumns

	row := r.DB.QueryRowContext(ctx, query, employeeID, clockOut, model.StatusClosed, notes, model.StatusOpen)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotClockedIn
	}
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return s, nil
}

// FindOpen returns the employee's OPEN session, or nil if there is none.
func (r *SessionRepositoryPG) FindOpen(ctx context.Context, employeeID string) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + `
              FROM attendance_sessions
              WHERE employee_id = $1 AND status = $2
              ORDER BY clock_in_time DESC
              LIMIT 1`

	row := r.DB.QueryRowContext(ctx, query, employeeID, model.StatusOpen)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return s, nil
}

// FindByID fetches a single session record.
func (r *SessionRepositoryPG) FindByID(ctx context.Context, id string) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE id = $1`

	row := r.DB.QueryRowContext(ctx, query, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return s, nil
}

// Query lists sessions matching the filter, newest clock-in first.
func (r *SessionRepositoryPG) Query(ctx context.Context, filter model.SessionFilter) ([]model.Session, error) {
	var (
		conditions []string
		args       []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, cond+"$"+strconv.Itoa(len(args)))
	}

	if filter.EmployeeID != "" {
		add("employee_id = ", filter.EmployeeID)
	}
	if filter.Status != "" {
		add("status = ", filter.Status)
	}
	if filter.StartDate != nil {
		add("clock_in_time >= ", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("clock_in_time <= ", *filter.EndDate)
	}

	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY clock_in_time DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var (
		s        model.Session
		clockOut sql.NullTime
	)
	err := row.Scan(&s.ID, &s.EmployeeID, &s.ClockInTime, &clockOut, &s.Status, &s.HoursWorked, &s.Notes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if clockOut.Valid {
		t := clockOut.Time
		s.ClockOutTime = &t
	}
	return &s, nil
}
