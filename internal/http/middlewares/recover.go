package middlewares

import (
	"net/http"

	"github.com/postbridge/connect/internal/http/apperrors"
	"github.com/postbridge/connect/internal/observability/logger"
)

// WithRecover catches panics and answers with a generic 500.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.From(r.Context())
					log.Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					apperrors.WriteError(w, apperrors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
