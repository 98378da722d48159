package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Gateway wraps a Backend with the persistence policy used by the note
// repository: JSON encoding, one eviction-and-retry cycle on quota failure,
// and loads that fall back to the caller's default instead of failing.
type Gateway struct {
	backend       Backend
	logger        *slog.Logger
	evictFraction float64
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the logger for the gateway.
func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithEvictFraction sets the share of unrelated keys dropped when a save
// hits the quota. Values outside (0, 1] fall back to DefaultEvictFraction.
func WithEvictFraction(f float64) GatewayOption {
	return func(g *Gateway) {
		if f > 0 && f <= 1 {
			g.evictFraction = f
		}
	}
}

// NewGateway creates a Gateway over the given backend.
func NewGateway(backend Backend, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		backend:       backend,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		evictFraction: DefaultEvictFraction,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Backend returns the underlying backend.
func (g *Gateway) Backend() Backend {
	return g.backend
}

// Save encodes v as JSON and stores it under key.
// On ErrQuotaExceeded it evicts the oldest keys other than key and retries once.
// Every failure is logged and returned wrapped in ErrPersist; Save never panics.
func (g *Gateway) Save(ctx context.Context, key string, v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrPersist, key, r)
			g.logger.Error("storage save panicked", "key", key, "panic", r)
		}
	}()

	data, err := json.Marshal(v)
	if err != nil {
		g.logger.Error("storage encode failed", "key", key, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPersist, key, err)
	}

	err = g.backend.Put(ctx, key, data)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		g.logger.Error("storage save failed", "key", key, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPersist, key, err)
	}

	removed, evictErr := evictOldest(ctx, g.backend, key, g.evictFraction)
	if evictErr != nil {
		g.logger.Warn("storage eviction failed", "key", key, "error", evictErr)
	}
	g.logger.Warn("storage quota exceeded, evicted oldest keys", "key", key, "evicted", removed)

	if err := g.backend.Put(ctx, key, data); err != nil {
		g.logger.Error("storage save failed after eviction", "key", key, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPersist, key, err)
	}
	return nil
}

// LoadRaw returns the stored bytes for key. It reports false when the key is
// missing, unreadable, or does not hold valid JSON.
func (g *Gateway) LoadRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	data, err := g.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.logger.Error("storage load failed", "key", key, "error", err)
		}
		return nil, false
	}
	if !json.Valid(data) {
		g.logger.Warn("storage holds malformed data", "key", key)
		return nil, false
	}
	return json.RawMessage(data), true
}

// Load decodes the value stored under key into dst.
// It reports false, leaving the caller's default in place, when the key is
// missing or the stored data does not decode. Load never panics.
func (g *Gateway) Load(ctx context.Context, key string, dst any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("storage load panicked", "key", key, "panic", r)
			ok = false
		}
	}()

	raw, found := g.LoadRaw(ctx, key)
	if !found {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		g.logger.Warn("storage decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Watch forwards to the backend when it supports change notifications.
func (g *Gateway) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := g.backend.(Watchable)
	if !ok {
		return nil, errors.New("storage backend does not support watching")
	}
	return w.Watch(ctx, pattern)
}
