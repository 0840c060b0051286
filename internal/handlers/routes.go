package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes adds every route of the service to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/preview/{path:.+}", h.GetPreview).Methods(http.MethodGet, http.MethodHead).Name("preview")
	api.HandleFunc("/available/{path:.+}", h.GetAvailability).Methods(http.MethodGet).Name("available")
}
