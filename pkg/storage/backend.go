package storage

import (
	"context"
	"time"
)

// Entry describes one stored key.
type Entry struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Backend is the raw key-value contract implemented by the adapters
// (memory, fs, sqlite). Backends may fail; the Gateway absorbs failures.
type Backend interface {
	// Put stores data under key, replacing any previous value.
	// It returns ErrQuotaExceeded when the write does not fit.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Entries lists every stored key.
	Entries(ctx context.Context) ([]Entry, error)
}

// EventType represents the type of change in the backend.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents an external change to a stored key.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.Key
}

// Watchable is implemented by backends that can report changes made by
// other processes (another CLI invocation, a text editor, a sync tool).
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
