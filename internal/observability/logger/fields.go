package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP fields.

// RequestID creates a field for the request ID.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method creates a field for the HTTP method.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path creates a field for the request path.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status creates a field for the HTTP status code.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs creates a field for the request duration in milliseconds.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Duration creates a field for an elapsed duration.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes creates a field for the response size.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// Business fields.

// UserID creates a field for the initiating user's identifier.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Provider creates a field for the OAuth provider name.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// Platform creates a field for the credential platform tag.
func Platform(v string) zap.Field {
	return zap.String("platform", v)
}

// PlatformUserID creates a field for the provider-assigned identity.
func PlatformUserID(v string) zap.Field {
	return zap.String("platform_user_id", v)
}

// System fields.

// Component creates a field naming the component/module.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op creates a field for the current operation.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err creates a field for an error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Any creates a generic field for any value.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String creates a generic string field.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int creates a generic int field.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}
