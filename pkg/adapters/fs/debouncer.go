package fs

import (
	"sync"
	"time"

	"github.com/aretw0/sheaf/pkg/storage"
)

// debouncer coalesces bursts of events per key. An editor saving a file
// usually produces several raw notifications; consumers get one.
type debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	pending map[string]*pendingEvent
	wg      sync.WaitGroup
	stopped bool
}

type pendingEvent struct {
	event storage.Event
	timer *time.Timer
}

func newDebouncer(wait time.Duration) *debouncer {
	return &debouncer{
		wait:    wait,
		pending: make(map[string]*pendingEvent),
	}
}

// add schedules e for emission once its key has been quiet for the wait
// period. A later event for the same key restarts the wait and is merged.
func (d *debouncer) add(e storage.Event, emit func(storage.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if p, ok := d.pending[e.Key]; ok && p.timer.Stop() {
		p.event = mergeEvents(p.event, e)
		p.timer.Reset(d.wait)
		return
	}

	p := &pendingEvent{event: e}
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.wait, func() {
		defer d.wg.Done()

		d.mu.Lock()
		ev := p.event
		if d.pending[ev.Key] == p {
			delete(d.pending, ev.Key)
		}
		d.mu.Unlock()

		emit(ev)
	})
	d.pending[e.Key] = p
}

// stopAndWait drops pending events and waits for in-flight emissions.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

// mergeEvents folds next into prev: a file created and then written is
// still a creation, anything followed by a removal is a removal.
func mergeEvents(prev, next storage.Event) storage.Event {
	if prev.Type == storage.EventCreate && next.Type == storage.EventModify {
		next.Type = storage.EventCreate
	}
	return next
}
