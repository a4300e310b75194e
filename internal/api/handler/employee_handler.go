package handler

import (
	"encoding/json"
	"net/http"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"github.com/gorilla/mux"
)

type EmployeeHandler struct {
	Service *core.EmployeeService
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok || caller.Role != model.RoleAdmin {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return
	}

	var in core.CreateEmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.Email == "" || in.FirstName == "" || in.LastName == "" {
		http.Error(w, "email, firstName and lastName are required", http.StatusBadRequest)
		return
	}

	employee, err := h.Service.Create(r.Context(), in, caller.EmployeeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok || caller.Role != model.RoleAdmin {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return
	}

	employees, err := h.Service.FindAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		http.Error(w, "Missing employee identity", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]
	if caller.Role != model.RoleAdmin && caller.EmployeeID != id {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return
	}

	employee, err := h.Service.FindByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok || caller.Role != model.RoleAdmin {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return
	}

	var in core.UpdateEmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	employee, err := h.Service.Update(r.Context(), mux.Vars(r)["id"], in, caller.EmployeeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok || caller.Role != model.RoleAdmin {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return
	}

	employee, err := h.Service.Deactivate(r.Context(), mux.Vars(r)["id"], caller.EmployeeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}
