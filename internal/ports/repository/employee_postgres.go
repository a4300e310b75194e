package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"github.com/jackc/pgx/v5/pgconn"
)

// EmployeeRepositoryPG stores employee records in PostgreSQL.
type EmployeeRepositoryPG struct {
	DB *sql.DB
}

// NewEmployeeRepository create new instance
func NewEmployeeRepository(db *sql.DB) EmployeeRepository {
	return &EmployeeRepositoryPG{DB: db}
}

const employeeColumns = `id, email, first_name, last_name, phone_number, department, position, hire_date, is_active, created_at, updated_at`

func (r *EmployeeRepositoryPG) Create(ctx context.Context, e *model.Employee) error {
	query := `INSERT INTO employees (id, email, first_name, last_name, phone_number, department, position, hire_date, is_active)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              RETURNING created_at, updated_at`

	err := r.DB.QueryRowContext(ctx, query,
		e.ID, e.Email, e.FirstName, e.LastName, e.PhoneNumber, e.Department, e.Position, e.HireDate, e.IsActive,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepositoryPG) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND is_active = TRUE`

	e, err := scanEmployee(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return e, nil
}

func (r *EmployeeRepositoryPG) FindAll(ctx context.Context) ([]model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE is_active = TRUE ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func (r *EmployeeRepositoryPG) Update(ctx context.Context, e *model.Employee) error {
	query := `UPDATE employees
              SET email = $2,
                  first_name = $3,
                  last_name = $4,
                  phone_number = $5,
                  department = $6,
                  position = $7,
                  hire_date = $8,
                  is_active = $9,
                  updated_at = $10
              WHERE id = $1`

	e.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Email, e.FirstName, e.LastName, e.PhoneNumber, e.Department, e.Position, e.HireDate, e.IsActive, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEmployee(row rowScanner) (*model.Employee, error) {
	var (
		e        model.Employee
		phone    sql.NullString
		dept     sql.NullString
		position sql.NullString
		hireDate sql.NullTime
	)
	err := row.Scan(&e.ID, &e.Email, &e.FirstName, &e.LastName, &phone, &dept, &position, &hireDate, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.PhoneNumber = phone.String
	e.Department = dept.String
	e.Position = position.String
	if hireDate.Valid {
		t := hireDate.Time
		e.HireDate = &t
	}
	return &e, nil
}
