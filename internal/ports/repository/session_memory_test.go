package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOpenEnforcesSingleOpenSession(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	first, err := repo.CreateOpen(ctx, "emp-1", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, first.Status)

	_, err = repo.CreateOpen(ctx, "emp-1", "", time.Now())
	require.ErrorIs(t, err, ErrAlreadyClockedIn)

	// A different employee is unaffected.
	_, err = repo.CreateOpen(ctx, "emp-2", "", time.Now())
	require.NoError(t, err)
}

func TestConcurrentCreateOpenAdmitsExactlyOne(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	const attempts = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateOpen(ctx, "emp-race", "", time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				succeeded++
			case ErrAlreadyClockedIn:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCloseOpenComputesHours(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	clockIn := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	_, err := repo.CreateOpen(ctx, "emp-1", "", clockIn)
	require.NoError(t, err)

	clockOut := time.Date(2024, 3, 11, 17, 30, 0, 0, time.UTC)
	session, err := repo.CloseOpen(ctx, "emp-1", "", clockOut)
	require.NoError(t, err)

	assert.Equal(t, model.StatusClosed, session.Status)
	assert.Equal(t, 8.5, session.HoursWorked)
	require.NotNil(t, session.ClockOutTime)
	assert.True(t, session.ClockOutTime.After(session.ClockInTime))
}

func TestCloseOpenAppendsNotes(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	_, err := repo.CreateOpen(ctx, "emp-1", "morning shift", time.Now())
	require.NoError(t, err)

	session, err := repo.CloseOpen(ctx, "emp-1", "done for today", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "morning shift. Clock-out notes: done for today", session.Notes)
}

func TestCloseOpenWithoutOpenSession(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	_, err := repo.CloseOpen(ctx, "emp-1", "", time.Now())
	require.ErrorIs(t, err, ErrNotClockedIn)

	// Close, then a second close must fail too.
	_, err = repo.CreateOpen(ctx, "emp-1", "", time.Now())
	require.NoError(t, err)
	_, err = repo.CloseOpen(ctx, "emp-1", "", time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = repo.CloseOpen(ctx, "emp-1", "", time.Now().Add(2*time.Minute))
	require.ErrorIs(t, err, ErrNotClockedIn)
}

func TestQueryFiltersAndOrdering(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	base := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	for day := 0; day < 3; day++ {
		in := base.AddDate(0, 0, day)
		_, err := repo.CreateOpen(ctx, "emp-1", "", in)
		require.NoError(t, err)
		_, err = repo.CloseOpen(ctx, "emp-1", "", in.Add(8*time.Hour))
		require.NoError(t, err)
	}
	_, err := repo.CreateOpen(ctx, "emp-2", "", base)
	require.NoError(t, err)

	t.Run("by employee, newest clock-in first", func(t *testing.T) {
		sessions, err := repo.Query(ctx, model.SessionFilter{EmployeeID: "emp-1"})
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		for i := 1; i < len(sessions); i++ {
			assert.True(t, sessions[i-1].ClockInTime.After(sessions[i].ClockInTime))
		}
	})

	t.Run("by status", func(t *testing.T) {
		sessions, err := repo.Query(ctx, model.SessionFilter{Status: model.StatusOpen})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "emp-2", sessions[0].EmployeeID)
	})

	t.Run("open-ended start date", func(t *testing.T) {
		start := base.AddDate(0, 0, 1)
		sessions, err := repo.Query(ctx, model.SessionFilter{EmployeeID: "emp-1", StartDate: &start})
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("open-ended end date", func(t *testing.T) {
		end := base.Add(time.Hour)
		sessions, err := repo.Query(ctx, model.SessionFilter{EmployeeID: "emp-1", EndDate: &end})
		require.NoError(t, err)
		assert.Len(t, sessions, 1)
	})

	t.Run("conjunctive filters", func(t *testing.T) {
		sessions, err := repo.Query(ctx, model.SessionFilter{EmployeeID: "emp-2", Status: model.StatusClosed})
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}
