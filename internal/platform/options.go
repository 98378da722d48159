package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/sheaf/pkg/storage"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
)

// options holds the internal configuration of a Store.
type options struct {
	backend        storage.Backend
	logger         *slog.Logger
	adapter        string
	key            string
	versioning     bool
	forceTemp      bool
	mustExist      bool
	devSafety      bool
	quota          int64
	evictFraction  float64
	defaultToggles int
	historySize    int
	debounce       time.Duration
	errorHandler   func(error)
}

// Option defines a functional option for configuring a Store.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:        AdapterFS,
		devSafety:      true,
		defaultToggles: -1,
	}
}

// WithAdapter selects the storage adapter by name ("fs", "sqlite", "memory").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithBackend injects a custom storage backend. The adapter setting and the
// uri are ignored.
func WithBackend(b storage.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger sets the logger shared by every component of the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithKey sets the storage key of the note collection.
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithVersioning commits every write to git (fs adapter only).
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = enabled
	}
}

// WithForceTemp forces the store into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist fails when the store directory does not exist yet.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
// By default (true) on-disk stores are re-rooted into a temporary directory
// so that development runs never touch real notes.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithQuota limits the total stored bytes. Zero means unlimited.
func WithQuota(bytes int64) Option {
	return func(o *options) {
		o.quota = bytes
	}
}

// WithEvictFraction sets the share of keys evicted when a save hits the quota.
func WithEvictFraction(f float64) Option {
	return func(o *options) {
		o.evictFraction = f
	}
}

// WithDefaultToggles sets how many sections a new note starts with.
// Values below 1 keep the repository default.
func WithDefaultToggles(n int) Option {
	return func(o *options) {
		o.defaultToggles = n
	}
}

// WithHistorySize bounds the undo stack of editing sessions.
func WithHistorySize(n int) Option {
	return func(o *options) {
		o.historySize = n
	}
}

// WithDebounce sets the quiet period closing a burst of text edits.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithWatcherErrorHandler receives runtime watcher failures, which are
// otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
