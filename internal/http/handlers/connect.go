package handlers

import (
	"fmt"
	"html"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/http/apperrors"
	"github.com/postbridge/connect/internal/oauth/providers"
	"github.com/postbridge/connect/internal/oauth/state"
	"github.com/postbridge/connect/internal/observability/logger"
	"github.com/postbridge/connect/internal/observability/metrics"
	"github.com/postbridge/connect/internal/util"
)

// unknownUser is the sentinel applied when the callback state is
// absent or undecodable. Deliberately lenient: the exchange still
// completes and the records land under "unknown" rather than failing
// the whole callback.
const unknownUser = "unknown"

// ConnectHandler orchestrates the start and callback legs of every
// provider flow.
type ConnectHandler struct {
	registry *providers.Registry
	store    repository.CredentialStore
	codec    *state.Codec
}

// NewConnectHandler creates the flow orchestration handler.
func NewConnectHandler(registry *providers.Registry, store repository.CredentialStore, codec *state.Codec) *ConnectHandler {
	return &ConnectHandler{registry: registry, store: store, codec: codec}
}

// Register mounts the start/callback routes.
func (h *ConnectHandler) Register(r chi.Router) {
	r.Get("/auth/{provider}/start", h.Start)
	r.Get("/auth/{provider}/callback", h.Callback)
}

// Start begins a flow: encodes state and redirects to the provider's
// authorization endpoint.
func (h *ConnectHandler) Start(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	provider, ok := h.registry.Get(name)
	if !ok {
		apperrors.WriteError(w, apperrors.ErrUnknownProvider.WithDetail(name))
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		apperrors.WriteError(w, apperrors.ErrMissingUserID)
		return
	}

	st, err := h.codec.Encode(userID)
	if err != nil {
		logger.From(r.Context()).Error("state encode failed",
			logger.Provider(name), logger.UserID(userID), logger.Err(err))
		apperrors.WriteError(w, apperrors.ErrInternal)
		return
	}

	http.Redirect(w, r, provider.AuthorizeURL(st), http.StatusFound)
}

// Callback completes a flow: decodes state, exchanges the code, and
// persists every returned credential record.
func (h *ConnectHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "provider")
	provider, ok := h.registry.Get(name)
	if !ok {
		apperrors.WriteError(w, apperrors.ErrUnknownProvider.WithDetail(name))
		return
	}
	log := logger.From(ctx).With(logger.Provider(name))

	userID, err := h.codec.Decode(r.URL.Query().Get("state"))
	if err != nil {
		log.Warn("undecodable callback state, continuing as unknown user", logger.Err(err))
		userID = unknownUser
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		// User denied consent or the provider sent a bare callback.
		// Benign: persist nothing.
		metrics.IncExchange(name, "no_code")
		WriteHTML(w, http.StatusOK, cancelledPage(name))
		return
	}

	creds, err := provider.Exchange(ctx, code, userID)
	if err != nil {
		metrics.IncExchange(name, "error")
		// Full provider detail stays in operator logs only.
		log.Error("token exchange failed", logger.UserID(userID), logger.Err(err))
		apperrors.WriteError(w, apperrors.ErrProviderExchange)
		return
	}

	for i := range creds {
		log.Debug("persisting credential",
			logger.UserID(userID),
			logger.Platform(string(creds[i].Platform)),
			logger.String("token", util.MaskToken(creds[i].AccessToken)),
		)
		if err := h.store.Upsert(ctx, &creds[i]); err != nil {
			metrics.IncExchange(name, "error")
			log.Error("credential upsert failed",
				logger.UserID(userID),
				logger.Platform(string(creds[i].Platform)),
				logger.Err(err))
			apperrors.WriteError(w, apperrors.ErrPersistence)
			return
		}
	}

	metrics.IncExchange(name, "ok")
	log.Info("provider connected",
		logger.UserID(userID),
		logger.Int("records", len(creds)),
	)
	WriteHTML(w, http.StatusOK, connectedPage(name, creds))
}

func cancelledPage(provider string) string {
	return fmt.Sprintf(`<html><body>
<h2>Connection not completed</h2>
<p>No authorization was received from %s. You can close this window and try again.</p>
</body></html>`, html.EscapeString(provider))
}

func connectedPage(provider string, creds []repository.Credential) string {
	identity := ""
	for _, c := range creds {
		if c.PlatformUserID != "" {
			identity = c.PlatformUserID
			break
		}
	}
	if identity == "" {
		return fmt.Sprintf(`<html><body>
<h2>Connected</h2>
<p>Your %s account is now connected. You can close this window.</p>
</body></html>`, html.EscapeString(provider))
	}
	return fmt.Sprintf(`<html><body>
<h2>Connected</h2>
<p>Your %s account (%s) is now connected. You can close this window.</p>
</body></html>`, html.EscapeString(provider), html.EscapeString(identity))
}
