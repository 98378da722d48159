package core

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// searchEntry holds the lowered searchable fields of one note revision.
type searchEntry struct {
	updated time.Time
	fields  []string
}

// searchCache memoizes the lowered text of notes, keyed by id.
// Entries are stale once the note's Updated timestamp moves.
type searchCache struct {
	cache *lru.Cache[int64, searchEntry]
}

func newSearchCache(size int) (*searchCache, error) {
	c, err := lru.New[int64, searchEntry](size)
	if err != nil {
		return nil, err
	}
	return &searchCache{cache: c}, nil
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// matches reports whether the lowered term q occurs in the note title or in
// any toggle title or content.
func (s *searchCache) matches(n Note, q string) bool {
	for _, f := range s.fields(n) {
		if strings.Contains(f, q) {
			return true
		}
	}
	return false
}

func (s *searchCache) fields(n Note) []string {
	if e, ok := s.cache.Get(n.ID); ok && e.updated.Equal(n.Updated) {
		return e.fields
	}

	fields := make([]string, 0, 1+2*len(n.Toggles))
	fields = append(fields, strings.ToLower(n.Title))
	for _, t := range n.Toggles {
		fields = append(fields, strings.ToLower(t.Title), strings.ToLower(t.Content))
	}
	s.cache.Add(n.ID, searchEntry{updated: n.Updated, fields: fields})
	return fields
}

func (s *searchCache) invalidate(id int64) {
	s.cache.Remove(id)
}

func (s *searchCache) purge() {
	s.cache.Purge()
}
