package storage

import (
	"context"
	"math"
	"sort"
)

// DefaultEvictFraction is the share of keys dropped by one eviction pass.
const DefaultEvictFraction = 0.2

// evictOldest removes the oldest fraction of keys (by ModTime), never touching
// keep. At least one key is removed when any candidate exists.
func evictOldest(ctx context.Context, b Backend, keep string, fraction float64) ([]string, error) {
	entries, err := b.Entries(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Key != keep {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ModTime.Before(candidates[j].ModTime)
	})

	n := int(math.Ceil(float64(len(candidates)) * fraction))
	if n < 1 {
		n = 1
	}
	if n > len(candidates) {
		n = len(candidates)
	}

	removed := make([]string, 0, n)
	for _, e := range candidates[:n] {
		if err := b.Remove(ctx, e.Key); err != nil {
			return removed, err
		}
		removed = append(removed, e.Key)
	}
	return removed, nil
}
