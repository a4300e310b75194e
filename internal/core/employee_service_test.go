package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChangePublisher struct {
	mu     sync.Mutex
	events []messaging.ChangeEvent
	err    error
}

func (f *fakeChangePublisher) PublishChange(ctx context.Context, event messaging.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func strPtr(s string) *string { return &s }

func newEmployeeFixture(t *testing.T) (*EmployeeService, *fakeChangePublisher, string) {
	t.Helper()
	publisher := &fakeChangePublisher{}
	service := NewEmployeeService(repository.NewInMemoryEmployeeRepository(), publisher)

	employee, err := service.Create(context.Background(), CreateEmployeeInput{
		Email:      "jo@example.com",
		FirstName:  "Jo",
		LastName:   "Smith",
		Department: "Assembly",
	}, "admin-1")
	require.NoError(t, err)
	return service, publisher, employee.ID
}

func TestCreatePublishesCreatedEvent(t *testing.T) {
	_, publisher, id := newEmployeeFixture(t)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, messaging.EventUserCreated, event.EventType)
	assert.Equal(t, id, event.UserID)
	assert.Equal(t, "admin-1", event.ChangedBy)
	require.NotNil(t, event.UserData)
	assert.Equal(t, "jo@example.com", event.UserData.Email)
}

func TestUpdatePublishesFieldDiff(t *testing.T) {
	service, publisher, id := newEmployeeFixture(t)

	updated, err := service.Update(context.Background(), id, UpdateEmployeeInput{
		Department: strPtr("Packaging"),
		Position:   strPtr("Lead"),
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Packaging", updated.Department)

	require.Len(t, publisher.events, 2)
	event := publisher.events[1]
	assert.Equal(t, messaging.EventUserUpdated, event.EventType)
	require.Len(t, event.Changes, 2)

	byField := map[string]messaging.FieldChange{}
	for _, c := range event.Changes {
		byField[c.Field] = c
	}
	assert.Equal(t, "Assembly", byField["department"].OldValue)
	assert.Equal(t, "Packaging", byField["department"].NewValue)
	assert.Equal(t, "", byField["position"].OldValue)
	assert.Equal(t, "Lead", byField["position"].NewValue)
}

func TestNoOpUpdatePublishesNothing(t *testing.T) {
	service, publisher, id := newEmployeeFixture(t)

	_, err := service.Update(context.Background(), id, UpdateEmployeeInput{
		Email:      strPtr("jo@example.com"),
		FirstName:  strPtr("Jo"),
		Department: strPtr("Assembly"),
	}, "admin-1")
	require.NoError(t, err)

	// Only the CREATED event from the fixture.
	assert.Len(t, publisher.events, 1)
}

func TestDeactivatePublishesIsActiveTransition(t *testing.T) {
	service, publisher, id := newEmployeeFixture(t)

	_, err := service.Deactivate(context.Background(), id, "admin-1")
	require.NoError(t, err)

	require.Len(t, publisher.events, 2)
	event := publisher.events[1]
	assert.Equal(t, messaging.EventUserUpdated, event.EventType)
	require.Len(t, event.Changes, 1)
	assert.Equal(t, "isActive", event.Changes[0].Field)
	assert.Equal(t, true, event.Changes[0].OldValue)
	assert.Equal(t, false, event.Changes[0].NewValue)

	_, err = service.FindByID(context.Background(), id)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMutationSurvivesPublishFailure(t *testing.T) {
	service, publisher, id := newEmployeeFixture(t)
	publisher.err = errors.New("broker unreachable")

	updated, err := service.Update(context.Background(), id, UpdateEmployeeInput{
		Position: strPtr("Supervisor"),
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Supervisor", updated.Position)

	// The committed mutation is readable even though the event was lost.
	found, err := service.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Supervisor", found.Position)
}
