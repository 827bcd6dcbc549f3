// Package apperrors defines the standard application error shape for
// the HTTP surface. Provider and storage causes are carried for logs
// but never serialized to clients.
package apperrors

import (
	"fmt"
	"net/http"
)

// AppError is the standard application error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // original cause, for logs only
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the original cause.
func (e *AppError) Unwrap() error { return e.Err }

// WithDetail returns a copy with extra client-visible detail.
// Copying keeps the predefined base errors immutable.
func (e *AppError) WithDetail(detail string) *AppError {
	out := *e
	out.Detail = detail
	return &out
}

// WithCause returns a copy carrying the original cause.
func (e *AppError) WithCause(err error) *AppError {
	out := *e
	out.Err = err
	return &out
}

// FromError converts any error into an AppError, defaulting to a
// generic internal error that keeps the cause for logging.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// Predefined errors.
var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is missing required parameters or is malformed.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingUserID = &AppError{
		Code:       "MISSING_USER_ID",
		Message:    "The user_id query parameter is required.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Missing or invalid service credentials.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUnknownProvider = &AppError{
		Code:       "UNKNOWN_PROVIDER",
		Message:    "No such provider is configured.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrProviderExchange = &AppError{
		Code:       "PROVIDER_EXCHANGE_FAILED",
		Message:    "The provider rejected the token exchange.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrPersistence = &AppError{
		Code:       "PERSISTENCE_FAILED",
		Message:    "The credential could not be stored.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
