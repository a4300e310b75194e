package changelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PostgresStore persists change-log entries in the user_change_logs table.
// Idempotency comes from a unique index on (user_id, event_type, occurred_at)
// combined with ON CONFLICT DO NOTHING, so redelivered events are dropped at
// the storage layer.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

const entryColumns = `id, event_type, user_id, user_data, changes, changed_by, occurred_at, created_at`

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) (bool, error) {
	userData, err := json.Marshal(entry.UserData)
	if err != nil {
		return false, fmt.Errorf("marshal user data: %w", err)
	}
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return false, fmt.Errorf("marshal changes: %w", err)
	}

	query := `INSERT INTO user_change_logs (id, event_type, user_id, user_data, changes, changed_by, occurred_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              ON CONFLICT (user_id, event_type, occurred_at) DO NOTHING`

	res, err := s.DB.ExecContext(ctx, query,
		uuid.NewString(), entry.EventType, entry.UserID, userData, changes, entry.ChangedBy, entry.OccurredAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert change log entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, cond+"$"+strconv.Itoa(len(args)))
	}
	if filter.UserID != "" {
		add("user_id = ", filter.UserID)
	}
	if filter.EventType != "" {
		add("event_type = ", filter.EventType)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_change_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count change log entries: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + entryColumns + ` FROM user_change_logs` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	entries, err := s.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + entryColumns + ` FROM user_change_logs ORDER BY created_at DESC LIMIT $1`
	return s.queryEntries(ctx, query, limit)
}

func (s *PostgresStore) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query change log entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			userData  []byte
			changes   []byte
			changedBy sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.EventType, &e.UserID, &userData, &changes, &changedBy, &e.OccurredAt, &e.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan change log entry: %w", err)
		}
		if len(userData) > 0 {
			if err := json.Unmarshal(userData, &e.UserData); err != nil {
				return nil, fmt.Errorf("unmarshal user data: %w", err)
			}
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal changes: %w", err)
			}
		}
		e.ChangedBy = changedBy.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
