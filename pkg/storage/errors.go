package storage

import "errors"

// Common errors.
var (
	// ErrNotFound is returned by backends when a key has no stored value.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned by backends when a write does not fit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrPersist wraps every failed Gateway.Save. Callers treat it as a warning:
	// in-memory state stays authoritative for the session.
	ErrPersist = errors.New("failed to persist")
)
