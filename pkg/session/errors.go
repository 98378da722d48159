package session

import "errors"

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
	// ErrNoteNotFound is returned when the note to edit does not exist.
	ErrNoteNotFound = errors.New("note not found")
)
