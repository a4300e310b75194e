package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/core"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(attendance *core.AttendanceService, employees *core.EmployeeService) *mux.Router {
	attendanceHandler := handler.AttendanceHandler{Service: attendance}
	employeeHandler := handler.EmployeeHandler{Service: employees}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	att := api.PathPrefix("/attendance").Subrouter()
	att.HandleFunc("/clock-in", attendanceHandler.ClockIn).Methods(http.MethodPost)
	att.HandleFunc("/clock-out", attendanceHandler.ClockOut).Methods(http.MethodPost)
	att.HandleFunc("/my-status", attendanceHandler.MyStatus).Methods(http.MethodGet)
	att.HandleFunc("/my-attendance", attendanceHandler.MyAttendance).Methods(http.MethodGet)
	att.HandleFunc("/status/{employeeId}", attendanceHandler.StatusByEmployee).Methods(http.MethodGet)
	att.HandleFunc("/{id}", attendanceHandler.GetSession).Methods(http.MethodGet)
	att.HandleFunc("", attendanceHandler.QueryAll).Methods(http.MethodGet)

	emp := api.PathPrefix("/employees").Subrouter()
	emp.HandleFunc("", employeeHandler.Create).Methods(http.MethodPost)
	emp.HandleFunc("", employeeHandler.List).Methods(http.MethodGet)
	emp.HandleFunc("/{id}", employeeHandler.Get).Methods(http.MethodGet)
	emp.HandleFunc("/{id}", employeeHandler.Update).Methods(http.MethodPut)
	emp.HandleFunc("/{id}", employeeHandler.Deactivate).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
