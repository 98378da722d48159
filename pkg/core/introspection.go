package core

import (
	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Notes        int    `json:"notes"`
	Key          string `json:"key"`
	LastPersist  string `json:"last_persist_error,omitempty"`
	CachedSearch int    `json:"cached_search"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := RepositoryState{
		Notes:        len(r.notes),
		Key:          r.key,
		CachedSearch: r.search.cache.Len(),
	}
	if r.lastErr != nil {
		st.LastPersist = r.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
