package web

// errors.go provides unified error response handling for the web layer.
//
// Full technical details are logged server-side with the chi request ID for
// correlation; clients receive a sanitized JSON body.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

// respondError logs the technical error and writes a JSON error body.
// Server faults (5xx) get a generic body; the detail stays in the log.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	msg := err.Error()
	if statusCode >= http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, statusCode, ErrorResponse{Error: msg})
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}
