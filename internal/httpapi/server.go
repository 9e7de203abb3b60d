package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qrguardian/guardian/internal/logging"
	"github.com/qrguardian/guardian/internal/service"
)

// NewServer creates and configures a new HTTP server
func NewServer(addr string, logger *logging.Logger, svc *service.Service) *http.Server {
	r := chi.NewRouter()
	r.Use(loggingMiddleware(logger))

	r.Get("/health", healthHandler)
	r.Post("/analyze", analyzeHandler(svc))
	r.Post("/enrich", enrichHandler(svc))
	r.Get("/history/recent", historyHandler(svc))

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}

// healthHandler returns a simple JSON response indicating the service
// is healthy
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "guardian-api",
	})
}

// writeJSON sets the Content-Type header and encodes the data as JSON
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
