// Package middlewares provides the HTTP middleware stack: request id
// propagation, structured request logging, panic recovery, and metrics.
package middlewares

import "net/http"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler
