package core

import (
	"sync"
	"time"
)

// IDGenerator hands out time-derived note ids (Unix milliseconds) that are
// strictly increasing, so rapid creation never collides.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator reading time from now (time.Now if nil).
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe records an id already in use so Next never returns it.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id > g.last {
		g.last = id
	}
}
