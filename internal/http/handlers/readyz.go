package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/observability/logger"
)

// ReadyzHandler reports readiness: the service is ready when the
// credential store answers a ping.
type ReadyzHandler struct {
	store repository.CredentialStore
}

// NewReadyzHandler creates the readiness handler.
func NewReadyzHandler(store repository.CredentialStore) *ReadyzHandler {
	return &ReadyzHandler{store: store}
}

// Register mounts the readiness route.
func (h *ReadyzHandler) Register(r chi.Router) {
	r.Get("/readyz", h.Readyz)
}

// Readyz answers 200 when the store is reachable, 503 otherwise.
func (h *ReadyzHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		logger.From(r.Context()).Error("store unavailable", logger.Err(err))
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store_unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
