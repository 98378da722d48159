// Package lifecycle exposes store change notifications as a lifecycle.Source,
// so a lifecycle-managed application can react to notes edited elsewhere.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/sheaf/pkg/storage"
)

// Source forwards storage events. storage.Event satisfies lifecycle.Event
// through its String method.
type Source struct {
	in   <-chan storage.Event
	out  chan lifecycle.Event
	keys []string
}

var _ lifecycle.Source = (*Source)(nil)

// NewSource wraps a storage event channel (see storage.Watchable). When keys
// are given, events for other keys are dropped.
func NewSource(events <-chan storage.Event, keys ...string) *Source {
	return &Source{
		in:   events,
		out:  make(chan lifecycle.Event),
		keys: keys,
	}
}

// Events implements lifecycle.Source. The channel closes when the input
// closes or the context given to Start ends.
func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start implements lifecycle.Source.
func (s *Source) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var (
				e  storage.Event
				ok bool
			)
			select {
			case <-ctx.Done():
				return nil
			case e, ok = <-s.in:
			}
			if !ok {
				return nil
			}
			if len(s.keys) > 0 && !slices.Contains(s.keys, e.Key) {
				continue
			}

			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
