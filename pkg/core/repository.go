package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/sheaf/pkg/storage"
)

const (
	// DefaultKey is the storage key holding the note collection.
	DefaultKey = "notes"
	// DefaultToggleCount is the number of toggles a new note starts with.
	DefaultToggleCount = 3
	// DefaultSearchCacheSize bounds the number of notes with cached search text.
	DefaultSearchCacheSize = 256
)

// Repository owns the authoritative, ordered collection of notes (most
// recently created first) and persists it through a storage.Gateway after
// every mutation. The in-memory state is authoritative: persistence failures
// are reported but never roll back a mutation.
type Repository struct {
	mu       sync.RWMutex
	notes    []Note
	gw       *storage.Gateway
	ids      *IDGenerator
	search   *searchCache
	lastErr  error
	logger   *slog.Logger
	key      string
	toggles  int
	now      func() time.Time
	cacheLen int
}

// Option configures a Repository.
type Option func(*Repository)

// WithKey sets the storage key of the note collection.
func WithKey(key string) Option {
	return func(r *Repository) {
		if key != "" {
			r.key = key
		}
	}
}

// WithDefaultToggles sets how many empty toggles a new note starts with.
// A note always starts with at least one toggle; values below 1 are ignored.
func WithDefaultToggles(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.toggles = n
		}
	}
}

// WithLogger sets the logger for the repository.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSearchCacheSize bounds the search text cache.
func WithSearchCacheSize(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.cacheLen = n
		}
	}
}

// NewRepository creates a repository and loads the stored collection.
// Malformed stored data never fails construction: invalid entries are
// dropped and the cleaned collection is written back.
func NewRepository(ctx context.Context, gw *storage.Gateway, opts ...Option) (*Repository, error) {
	if gw == nil {
		return nil, errors.New("storage gateway is required")
	}

	r := &Repository{
		gw:       gw,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		key:      DefaultKey,
		toggles:  DefaultToggleCount,
		now:      time.Now,
		cacheLen: DefaultSearchCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.ids = NewIDGenerator(r.now)
	search, err := newSearchCache(r.cacheLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}
	r.search = search

	if err := r.Reload(ctx); err != nil {
		// Load errors are persistence warnings; the collection is usable.
		r.logger.Warn("initial persist failed", "error", err)
	}
	return r, nil
}

// Reload re-reads the collection from storage, replacing the in-memory state.
// It is used at construction and when the backend reports an external change
// (last writer wins). The returned error only reports a failed write-back of
// cleaned data.
func (r *Repository) Reload(ctx context.Context) error {
	raw, found := r.gw.LoadRaw(ctx, r.key)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !found {
		// Missing or malformed: an empty collection, written back only when
		// something was actually stored.
		_, err := r.gw.Backend().Get(ctx, r.key)
		r.notes = []Note{}
		r.search.purge()
		if err == nil {
			return r.persistLocked(ctx)
		}
		return nil
	}

	res := cleanNotes(raw, r.now(), r.logger)
	r.notes = res.notes
	r.search.purge()
	for _, n := range r.notes {
		r.ids.Observe(n.ID)
	}
	r.logger.Debug("notes loaded", "count", len(r.notes), "dropped", res.dropped)

	if res.dirty {
		return r.persistLocked(ctx)
	}
	return nil
}

// CreateNote inserts a new note at the front of the collection and persists.
// On a persistence failure the note is still returned and kept in memory.
func (r *Repository) CreateNote(ctx context.Context) (Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := NewNote(r.ids.Next(), r.toggles, r.now())
	r.notes = slices.Insert(r.notes, 0, n)
	r.logger.Debug("note created", "id", n.ID)

	return n.Clone(), r.persistLocked(ctx)
}

// UpdateNote replaces the stored note having the same id, stamping Updated.
// Invalid input returns ErrInvalidNote and leaves the state untouched.
// An unknown id is a no-op.
func (r *Repository) UpdateNote(ctx context.Context, n Note) error {
	if err := Validate(n); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(n.ID)
	if i < 0 {
		r.logger.Debug("update of unknown note ignored", "id", n.ID)
		return nil
	}

	next := n.Clone()
	next.Created = r.notes[i].Created
	next.Updated = Timestamp(r.now())
	r.notes[i] = next
	r.search.invalidate(n.ID)

	return r.persistLocked(ctx)
}

// DeleteNote removes the note with the given id. Unknown ids are a no-op.
func (r *Repository) DeleteNote(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return nil
	}
	r.notes = slices.Delete(r.notes, i, i+1)
	r.search.invalidate(id)
	r.logger.Debug("note deleted", "id", id)

	return r.persistLocked(ctx)
}

// ConfirmDelete deletes the note only when confirm approves it.
// It reports whether the note was deleted.
func (r *Repository) ConfirmDelete(ctx context.Context, id int64, confirm func(Note) bool) (bool, error) {
	n, ok := r.GetNote(id)
	if !ok {
		return false, nil
	}
	if confirm != nil && !confirm(n) {
		return false, nil
	}
	if err := r.DeleteNote(ctx, id); err != nil {
		return true, err
	}
	return true, nil
}

// GetNotes returns the notes matching term, in collection order.
// Matching is case-insensitive over the note title and every toggle title and
// content. A blank term matches everything. Yielded notes are copies.
func (r *Repository) GetNotes(term string) iter.Seq[Note] {
	r.mu.RLock()
	notes := slices.Clone(r.notes)
	r.mu.RUnlock()

	q := normalizeTerm(term)
	return func(yield func(Note) bool) {
		for _, n := range notes {
			if q != "" && !r.search.matches(n, q) {
				continue
			}
			if !yield(n.Clone()) {
				return
			}
		}
	}
}

// GetNote returns a copy of the note with the given id.
func (r *Repository) GetNote(id int64) (Note, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexLocked(id)
	if i < 0 {
		return Note{}, false
	}
	return r.notes[i].Clone(), true
}

// Len returns the number of notes.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notes)
}

// Key returns the storage key of the collection.
func (r *Repository) Key() string {
	return r.key
}

func (r *Repository) indexLocked(id int64) int {
	return slices.IndexFunc(r.notes, func(n Note) bool { return n.ID == id })
}

func (r *Repository) persistLocked(ctx context.Context) error {
	err := r.gw.Save(ctx, r.key, r.notes)
	r.lastErr = err
	if err != nil {
		r.logger.Warn("failed to persist notes", "key", r.key, "error", err)
	}
	return err
}
