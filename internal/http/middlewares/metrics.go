package middlewares

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/postbridge/connect/internal/observability/metrics"
)

// WithMetrics records request count, latency and inflight gauge.
// The route pattern is used as the path label to keep cardinality
// bounded (no raw user ids in labels).
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			metrics.IncInflight(1)
			next.ServeHTTP(rec, r)
			metrics.IncInflight(-1)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			metrics.ObserveRequest(r.Method, path, rec.status, time.Since(start))
		})
	}
}
