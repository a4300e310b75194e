package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Identity headers are filled in by the gateway after token validation; this
// service trusts them as given.
const (
	HeaderEmployeeID = "X-Employee-Id"
	HeaderRole       = "X-Employee-Role"
)

type AttendanceHandler struct {
	Service *core.AttendanceService
}

type ClockRequest struct {
	EmployeeID string `json:"employeeId,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Caller resolves the acting identity and the target employee. Only admins
// may act on another employee; a non-admin submitting a foreign employeeId
// silently operates on their own record, same as the original gateway did.
type Caller struct {
	EmployeeID string
	Role       model.Role
}

func callerFrom(r *http.Request) (Caller, bool) {
	id := r.Header.Get(HeaderEmployeeID)
	if id == "" {
		return Caller{}, false
	}
	role := model.Role(r.Header.Get(HeaderRole))
	if role == "" {
		role = model.RoleEmployee
	}
	return Caller{EmployeeID: id, Role: role}, true
}

func (c Caller) target(requested string) string {
	if c.Role == model.RoleAdmin && requested != "" {
		return requested
	}
	return c.EmployeeID
}

func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		http.Error(w, "Missing employee identity", http.StatusUnauthorized)
		return
	}

	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.Service.ClockIn(r.Context(), caller.target(req.EmployeeID), req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		http.Error(w, "Missing employee identity", http.StatusUnauthorized)
		return
	}

	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.Service.ClockOut(r.Context(), caller.target(req.EmployeeID), req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AttendanceHandler) MyStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		http.Error(w, "Missing employee identity", http.StatusUnauthorized)
		return
	}

	status, err := h.Service.GetCurrentStatus(r.Context(), caller.EmployeeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AttendanceHandler) StatusByEmployee(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok || caller.Role != model.RoleAdmin {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return
	}

	status, err := h.Service.GetCurrentStatus(r.Context(), mux.Vars(r)["employeeId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AttendanceHandler) MyAttendance(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		http.Error(w, "Missing employee identity", http.StatusUnauthorized)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.EmployeeID = caller.EmployeeID

	sessions, err := h.Service.Query(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *AttendanceHandler) QueryAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok || caller.Role != model.RoleAdmin {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessions, err := h.Service.Query(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *AttendanceHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok || caller.Role != model.RoleAdmin {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return
	}

	session, err := h.Service.FindSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func filterFromQuery(r *http.Request) (model.SessionFilter, error) {
	q := r.URL.Query()
	filter := model.SessionFilter{
		EmployeeID: q.Get("employeeId"),
		Status:     model.SessionStatus(q.Get("status")),
	}

	parse := func(raw string) (*time.Time, error) {
		if raw == "" {
			return nil, nil
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return &t, nil
			}
		}
		return nil, errors.New("invalid date: " + raw)
	}

	var err error
	if filter.StartDate, err = parse(q.Get("startDate")); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parse(q.Get("endDate")); err != nil {
		return filter, err
	}
	return filter, nil
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrAlreadyClockedIn):
		http.Error(w, "Employee is already clocked in", http.StatusConflict)
	case errors.Is(err, repository.ErrNotClockedIn):
		http.Error(w, "Employee is not clocked in", http.StatusConflict)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Record not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrDuplicateEmail):
		http.Error(w, "Email is already registered", http.StatusConflict)
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Service error")
		http.Error(w, "Service error processing request", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
