package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/sheaf/pkg/core"
	"github.com/aretw0/sheaf/pkg/session"
	"github.com/aretw0/sheaf/pkg/storage"
)

// Store wires a backend, the gateway and the note repository together.
type Store struct {
	Repo    *core.Repository
	Gateway *storage.Gateway
	Backend storage.Backend

	opts  *options
	close func() error
}

// Open builds a Store. The uri is adapter-specific: a directory for "fs", a
// database file or directory for "sqlite", ignored for "memory".
//
//	st, err := platform.Open(ctx, "./notes", platform.WithVersioning(true))
func Open(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}

	backend, closer, err := initBackend(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	gwOpts := []storage.GatewayOption{storage.WithLogger(o.logger)}
	if o.evictFraction > 0 {
		gwOpts = append(gwOpts, storage.WithEvictFraction(o.evictFraction))
	}
	gw := storage.NewGateway(backend, gwOpts...)

	repoOpts := []core.Option{core.WithLogger(o.logger), core.WithKey(o.key)}
	if o.defaultToggles > 0 {
		repoOpts = append(repoOpts, core.WithDefaultToggles(o.defaultToggles))
	}
	repo, err := core.NewRepository(ctx, gw, repoOpts...)
	if err != nil {
		_ = closer()
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Store{
		Repo:    repo,
		Gateway: gw,
		Backend: backend,
		opts:    o,
		close:   closer,
	}, nil
}

// OpenSession starts an editing session on a note using the store's
// history and debounce settings.
func (s *Store) OpenSession(ctx context.Context, noteID int64, opts ...session.Option) (*session.Session, error) {
	base := []session.Option{session.WithLogger(s.opts.logger)}
	if s.opts.historySize > 0 {
		base = append(base, session.WithHistorySize(s.opts.historySize))
	}
	if s.opts.debounce > 0 {
		base = append(base, session.WithDebounce(s.opts.debounce))
	}
	return session.Open(ctx, s.Repo, noteID, append(base, opts...)...)
}

// Watch reloads the repository whenever another process changes the stored
// collection, then calls onChange (if not nil). It returns once watching has
// started; watching stops with ctx.
func (s *Store) Watch(ctx context.Context, onChange func(storage.Event)) error {
	events, err := s.Gateway.Watch(ctx, s.Repo.Key())
	if err != nil {
		return err
	}

	logger := s.opts.logger
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for e := range events {
			logger.Info("external change detected", "event", e.String())
			if err := s.Repo.Reload(ctx); err != nil {
				logger.Warn("reload after external change failed", "error", err)
			}
			if onChange != nil {
				onChange(e)
			}
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("watch loop panicked", "error", err)
	}))
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.close()
}
