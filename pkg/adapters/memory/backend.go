// Package memory provides an in-process storage backend.
// It is the default for tests and for the "memory" adapter.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/sheaf/pkg/storage"
)

type item struct {
	data    []byte
	modTime time.Time
}

// Backend implements storage.Backend with a map guarded by a RWMutex.
type Backend struct {
	mu    sync.RWMutex
	items map[string]item
	quota int64
	used  int64
	last  time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithQuota limits the total number of stored bytes. Zero means unlimited.
func WithQuota(bytes int64) Option {
	return func(b *Backend) {
		b.quota = bytes
	}
}

// NewBackend creates an empty in-memory backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		items: make(map[string]item),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// stamp returns a strictly increasing modification time so that eviction
// order is stable even when writes land in the same clock tick.
func (b *Backend) stamp() time.Time {
	now := time.Now()
	if !now.After(b.last) {
		now = b.last.Add(time.Nanosecond)
	}
	b.last = now
	return now
}

// Put stores a copy of data under key, enforcing the quota.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev := int64(len(b.items[key].data))
	next := b.used - prev + int64(len(data))
	if b.quota > 0 && next > b.quota {
		return storage.ErrQuotaExceeded
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	b.items[key] = item{data: cp, modTime: b.stamp()}
	b.used = next
	return nil
}

// Get returns a copy of the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	it, ok := b.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := make([]byte, len(it.data))
	copy(cp, it.data)
	return cp, nil
}

// Remove deletes key. A missing key is not an error.
func (b *Backend) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if it, ok := b.items[key]; ok {
		b.used -= int64(len(it.data))
		delete(b.items, key)
	}
	return nil
}

// Entries lists every key, oldest write first.
func (b *Backend) Entries(ctx context.Context) ([]storage.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := make([]storage.Entry, 0, len(b.items))
	for k, it := range b.items {
		entries = append(entries, storage.Entry{
			Key:     k,
			Size:    int64(len(it.data)),
			ModTime: it.modTime,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return entries, nil
}

// Used returns the number of stored bytes.
func (b *Backend) Used() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.used
}

var _ storage.Backend = (*Backend)(nil)
