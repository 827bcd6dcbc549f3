// Package http wires the service's HTTP surface: middleware stack,
// flow orchestration routes, credential exposure, and operational
// endpoints.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/http/handlers"
	"github.com/postbridge/connect/internal/http/middlewares"
	"github.com/postbridge/connect/internal/oauth/providers"
	"github.com/postbridge/connect/internal/oauth/state"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Registry *providers.Registry
	Store    repository.CredentialStore
	State    *state.Codec

	// ServiceSecret gates the credential exposure endpoint.
	ServiceSecret string

	// Metrics is the /metrics handler; nil disables the route.
	Metrics http.Handler
}

// NewRouter builds the full route tree.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(middlewares.WithMetrics())
	r.Use(middlewares.WithRecover())

	handlers.NewConnectHandler(deps.Registry, deps.Store, deps.State).Register(r)
	handlers.NewCredentialsHandler(deps.Store, deps.ServiceSecret).Register(r)
	handlers.NewProvidersHandler(deps.Registry).Register(r)
	handlers.NewReadyzHandler(deps.Store).Register(r)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	return r
}
