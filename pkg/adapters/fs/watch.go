package fs

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/sheaf/pkg/storage"
)

// Watch reports changes to keys matching pattern (doublestar syntax, matched
// against the key without extension) made by anyone but this backend.
// The channel is closed once ctx is done.
func (b *Backend) Watch(ctx context.Context, pattern string) (<-chan storage.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	events := make(chan storage.Event, 16)
	w := newWatchWorker(b, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}
