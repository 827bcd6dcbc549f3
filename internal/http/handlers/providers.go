package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/postbridge/connect/internal/oauth/providers"
)

// ProvidersHandler lists the providers configured in this deployment.
type ProvidersHandler struct {
	registry *providers.Registry
}

// NewProvidersHandler creates the provider listing handler.
func NewProvidersHandler(registry *providers.Registry) *ProvidersHandler {
	return &ProvidersHandler{registry: registry}
}

// Register mounts the listing route.
func (h *ProvidersHandler) Register(r chi.Router) {
	r.Get("/auth/providers", h.List)
}

// List returns the configured provider names.
func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"providers": h.registry.Names()})
}
