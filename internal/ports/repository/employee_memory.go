package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"attendance.service/internal/core/model"
)

// InMemoryEmployeeRepository is the test double for employee storage.
type InMemoryEmployeeRepository struct {
	mu        sync.Mutex
	employees map[string]*model.Employee
}

func NewInMemoryEmployeeRepository() *InMemoryEmployeeRepository {
	return &InMemoryEmployeeRepository{employees: make(map[string]*model.Employee)}
}

func (r *InMemoryEmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.employees {
		if existing.Email == e.Email {
			return ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	copied := *e
	r.employees[e.ID] = &copied
	return nil
}

func (r *InMemoryEmployeeRepository) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.employees[id]
	if !ok || !e.IsActive {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *InMemoryEmployeeRepository) FindAll(ctx context.Context) ([]model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []model.Employee
	for _, e := range r.employees {
		if e.IsActive {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *InMemoryEmployeeRepository) Update(ctx context.Context, e *model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[e.ID]; !ok {
		return ErrNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	copied := *e
	r.employees[e.ID] = &copied
	return nil
}
