// Package handlers contains the HTTP handlers for the OAuth broker:
// flow start/callback orchestration, credential exposure, provider
// listing and readiness.
package handlers

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a standard JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteHTML writes a small human-facing HTML page. Used for the
// browser-visible callback acknowledgments.
func WriteHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
