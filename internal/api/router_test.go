package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopEmailProducer struct{}

func (nopEmailProducer) PublishEmail(ctx context.Context, event messaging.EmailEvent) error {
	return nil
}

type nopChangePublisher struct{}

func (nopChangePublisher) PublishChange(ctx context.Context, event messaging.ChangeEvent) error {
	return nil
}

func newTestRouter() http.Handler {
	attendance := core.NewAttendanceService(repository.NewInMemorySessionRepository(), nopEmailProducer{})
	employees := core.NewEmployeeService(repository.NewInMemoryEmployeeRepository(), nopChangePublisher{})
	return NewRouter(attendance, employees)
}

func doRequest(t *testing.T, router http.Handler, method, path, employeeID, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if employeeID != "" {
		req.Header.Set(handler.HeaderEmployeeID, employeeID)
	}
	if role != "" {
		req.Header.Set(handler.HeaderRole, role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestClockInRequiresIdentity(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/attendance/clock-in", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClockInAndDoubleClockIn(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/attendance/clock-in", "emp-1", "employee", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "emp-1", session.EmployeeID)
	assert.Equal(t, model.StatusOpen, session.Status)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/attendance/clock-in", "emp-1", "employee", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClockOutWithoutOpenSession(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/attendance/clock-out", "emp-1", "employee", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNonAdminForeignEmployeeIDIsIgnored(t *testing.T) {
	router := newTestRouter()

	body := `{"employeeId":"emp-victim"}`
	rec := doRequest(t, router, http.MethodPost, "/api/v1/attendance/clock-in", "emp-1", "employee", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	// The session belongs to the caller, not the requested employee.
	assert.Equal(t, "emp-1", session.EmployeeID)
}

func TestAdminMayClockInAnotherEmployee(t *testing.T) {
	router := newTestRouter()

	body := `{"employeeId":"emp-2","notes":"badge reader down"}`
	rec := doRequest(t, router, http.MethodPost, "/api/v1/attendance/clock-in", "admin-1", "admin", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "emp-2", session.EmployeeID)
	assert.Equal(t, "badge reader down", session.Notes)
}

func TestStatusEndpoints(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/attendance/my-status", "emp-1", "employee", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status core.SessionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.IsOpen)

	doRequest(t, router, http.MethodPost, "/api/v1/attendance/clock-in", "emp-1", "employee", "")

	rec = doRequest(t, router, http.MethodGet, "/api/v1/attendance/my-status", "emp-1", "employee", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.IsOpen)

	// Admin lookup of another employee's status.
	rec = doRequest(t, router, http.MethodGet, "/api/v1/attendance/status/emp-1", "admin-1", "admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Non-admins cannot inspect other employees.
	rec = doRequest(t, router, http.MethodGet, "/api/v1/attendance/status/emp-1", "emp-2", "employee", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQueryAllRequiresAdmin(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/attendance", "emp-1", "employee", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/attendance", "admin-1", "admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMyAttendanceRejectsBadDate(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/attendance/my-attendance?startDate=yesterday", "emp-1", "employee", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/attendance/my-attendance?startDate=2024-03-11", "emp-1", "employee", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmployeeCRUDAuthorization(t *testing.T) {
	router := newTestRouter()

	body := `{"email":"jo@example.com","firstName":"Jo","lastName":"Smith"}`

	rec := doRequest(t, router, http.MethodPost, "/api/v1/employees", "emp-1", "employee", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/employees", "admin-1", "admin", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Employee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	// Duplicate email is a conflict.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/employees", "admin-1", "admin", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// An employee may read their own record but nobody else's.
	rec = doRequest(t, router, http.MethodGet, "/api/v1/employees/"+created.ID, created.ID, "employee", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/api/v1/employees/"+created.ID, "emp-other", "employee", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Deactivation removes the record from active reads.
	rec = doRequest(t, router, http.MethodDelete, "/api/v1/employees/"+created.ID, "admin-1", "admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/api/v1/employees/"+created.ID, "admin-1", "admin", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodGet, "/health", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
