package sheaf

import (
	"context"
	_ "embed"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/sheaf/internal/platform"
	"github.com/aretw0/sheaf/pkg/core"
	"github.com/aretw0/sheaf/pkg/history"
	"github.com/aretw0/sheaf/pkg/session"
	"github.com/aretw0/sheaf/pkg/storage"
)

//go:embed VERSION
var version string

// Version is the release of the library.
var Version = strings.TrimSpace(version)

// --- Types ---

type (
	Note     = core.Note
	Toggle   = core.Toggle
	Snapshot = core.Snapshot

	Repository = core.Repository
	Session    = session.Session
	Status     = history.Status
	Event      = storage.Event

	// Store bundles a backend with the note repository built on it.
	Store = platform.Store
)

// --- Configuration ---

// Option configures Open.
type Option = platform.Option

// WithAdapter selects the storage adapter: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBackend injects a custom storage backend.
func WithBackend(b storage.Backend) Option {
	return platform.WithBackend(b)
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithKey sets the storage key of the note collection.
func WithKey(key string) Option {
	return platform.WithKey(key)
}

// WithVersioning commits every write to git (fs adapter).
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the store into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist fails when the store directory does not exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithQuota limits the total stored bytes.
func WithQuota(bytes int64) Option {
	return platform.WithQuota(bytes)
}

// WithEvictFraction sets the share of keys evicted on a quota failure.
func WithEvictFraction(f float64) Option {
	return platform.WithEvictFraction(f)
}

// WithDefaultToggles sets how many sections a new note starts with.
func WithDefaultToggles(n int) Option {
	return platform.WithDefaultToggles(n)
}

// WithHistorySize bounds the undo stack of editing sessions.
func WithHistorySize(n int) Option {
	return platform.WithHistorySize(n)
}

// WithDebounce sets the quiet period that closes a burst of text edits.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithWatcherErrorHandler receives runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Entry points ---

// Open builds a Store at uri (adapter-specific).
func Open(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	return platform.Open(ctx, uri, opts...)
}

// ResolvePath returns the path a store really uses under the dev sandbox rules.
func ResolvePath(userPath string, forceTemp bool) string {
	return platform.ResolvePath(userPath, forceTemp)
}

// IsDevRun reports whether the binary runs under `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot walks up from startDir looking for a sheaf store.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
