package changelog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"attendance.service/internal/ports/messaging"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the read-only change-log API.
type Handler struct {
	Service *Service
}

// NewRouter sets up the change-log query routes.
func NewRouter(service *Service) *mux.Router {
	h := Handler{Service: service}

	r := mux.NewRouter()
	logs := r.PathPrefix("/logs").Subrouter()
	logs.HandleFunc("/user-changes", h.ListChanges).Methods(http.MethodGet)
	logs.HandleFunc("/user-changes/recent", h.RecentChanges).Methods(http.MethodGet)
	logs.HandleFunc("/user-changes/user/{userId}", h.ListChangesByUser).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}

func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.Service.GetUserChangeLogs(r.Context(),
		q.Get("userId"),
		messaging.ChangeEventType(q.Get("eventType")),
		intParam(q.Get("limit"), 100),
		intParam(q.Get("offset"), 0),
	)
	if err != nil {
		http.Error(w, "Failed to query change logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) ListChangesByUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.Service.GetUserChangeLogs(r.Context(),
		mux.Vars(r)["userId"],
		"",
		intParam(q.Get("limit"), 100),
		intParam(q.Get("offset"), 0),
	)
	if err != nil {
		http.Error(w, "Failed to query change logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) RecentChanges(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Service.GetRecentChanges(r.Context(), intParam(r.URL.Query().Get("limit"), 10))
	if err != nil {
		http.Error(w, "Failed to query recent changes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, logs)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
