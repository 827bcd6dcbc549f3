package repository

import "errors"

// ErrNotFound is returned by Get when no record exists for the pair.
var ErrNotFound = errors.New("repository: not found")

// PersistenceError wraps a storage engine failure so callers can treat
// any backend fault uniformly. The underlying cause is kept for logs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "repository: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
