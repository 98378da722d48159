package core

import "errors"

// Common errors.
var (
	// ErrInvalidNote is returned when a note fails structural validation.
	ErrInvalidNote = errors.New("invalid note")
)
