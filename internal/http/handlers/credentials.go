package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/http/apperrors"
	"github.com/postbridge/connect/internal/observability/logger"
)

// CredentialsHandler serves stored credentials to the downstream
// consumer, gated by the service-wide shared secret.
type CredentialsHandler struct {
	store  repository.CredentialStore
	secret string
}

// NewCredentialsHandler creates the credential exposure handler.
func NewCredentialsHandler(store repository.CredentialStore, secret string) *CredentialsHandler {
	return &CredentialsHandler{store: store, secret: secret}
}

// Register mounts the exposure routes behind the secret check.
func (h *CredentialsHandler) Register(r chi.Router) {
	r.Route("/v1/users/{userID}/credentials", func(r chi.Router) {
		r.Use(h.requireSecret)
		r.Get("/", h.List)
		r.Delete("/{platform}", h.Delete)
	})
}

// requireSecret rejects the request unless the presented bearer secret
// exactly matches the configured one. An unset secret fails closed.
func (h *CredentialsHandler) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if h.secret == "" || presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(h.secret)) != 1 {
			apperrors.WriteError(w, apperrors.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type tokenView struct {
	AccessToken    string         `json:"access_token"`
	RefreshToken   string         `json:"refresh_token,omitempty"`
	PlatformUserID string         `json:"platform_user_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type credentialsResponse struct {
	UserID string               `json:"userId"`
	Tokens map[string]tokenView `json:"tokens"`
}

// List returns a platform-to-token mapping for the user. Platforms
// with no stored record are absent from the mapping, never null.
func (h *CredentialsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	creds, err := h.store.List(r.Context(), userID)
	if err != nil {
		logger.From(r.Context()).Error("credential list failed",
			logger.UserID(userID), logger.Err(err))
		apperrors.WriteError(w, apperrors.ErrPersistence)
		return
	}

	tokens := make(map[string]tokenView, len(creds))
	for _, c := range creds {
		tokens[string(c.Platform)] = tokenView{
			AccessToken:    c.AccessToken,
			RefreshToken:   c.RefreshToken,
			PlatformUserID: c.PlatformUserID,
			Metadata:       c.Metadata,
		}
	}

	WriteJSON(w, http.StatusOK, credentialsResponse{UserID: userID, Tokens: tokens})
}

// Delete removes a single stored credential. Deleting an absent record
// is a no-op and still answers 204.
func (h *CredentialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	platform := repository.Platform(chi.URLParam(r, "platform"))
	if !platform.Valid() {
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("unknown platform"))
		return
	}

	if err := h.store.Delete(r.Context(), userID, platform); err != nil {
		logger.From(r.Context()).Error("credential delete failed",
			logger.UserID(userID), logger.Platform(string(platform)), logger.Err(err))
		apperrors.WriteError(w, apperrors.ErrPersistence)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
