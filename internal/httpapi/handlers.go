package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/qrguardian/guardian/internal/analyzer"
	"github.com/qrguardian/guardian/internal/service"
)

// analyzeRequest is the JSON request body for the /analyze endpoint
type analyzeRequest struct {
	Payload string `json:"payload"`
}

// analyzeResponse wraps the analysis result with a cache marker
type analyzeResponse struct {
	*analyzer.Result
	Cached bool `json:"cached"`
}

// analyzeHandler scores a QR payload or URL
func analyzeHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Invalid JSON",
			})
			return
		}

		if req.Payload == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Payload is required",
			})
			return
		}

		result, cached := svc.Analyze(r.Context(), req.Payload)

		writeJSON(w, http.StatusOK, analyzeResponse{
			Result: result,
			Cached: cached,
		})
	}
}

// enrichRequest is the JSON request body for the /enrich endpoint
type enrichRequest struct {
	URL string `json:"url"`
}

// enrichHandler runs the configured enrichment services against a URL
func enrichHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Invalid JSON",
			})
			return
		}

		if req.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "URL is required",
			})
			return
		}

		writeJSON(w, http.StatusOK, svc.Enrich(r.Context(), req.URL))
	}
}

// historyHandler returns the most recent analysis records
func historyHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "Invalid limit",
				})
				return
			}
			limit = parsed
		}

		records, err := svc.Recent(limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to load history",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"records": records,
			"count":   len(records),
		})
	}
}
