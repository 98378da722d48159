package history

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// DefaultMaxSize is the default bound of the undo stack.
const DefaultMaxSize = 100

// State is a value the history can store.
// Clone must return a copy sharing no mutable memory with the receiver.
type State[T any] interface {
	Clone() T
	Equal(other T) bool
	IsZero() bool
}

// Status reports which operations are currently available.
type Status struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// Observer is notified after every change of the stacks.
type Observer func(Status)

// Manager is a bounded undo/redo history.
// It is safe for concurrent use, but observers are called synchronously and
// must not call back into the manager.
type Manager[T State[T]] struct {
	mu        sync.Mutex
	undo      []T
	redo      []T
	maxSize   int
	logger    *slog.Logger
	observers map[int]Observer
	nextObs   int
}

// Option configures a Manager.
type Option func(*config)

type config struct {
	maxSize   int
	logger    *slog.Logger
	observers []Observer
}

// WithMaxSize bounds the undo stack. Values below 1 are ignored.
func WithMaxSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(fn Observer) Option {
	return func(c *config) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithLogger sets the logger for the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty Manager.
func New[T State[T]](opts ...Option) *Manager[T] {
	cfg := config{
		maxSize: DefaultMaxSize,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manager[T]{
		maxSize:   cfg.maxSize,
		logger:    cfg.logger,
		observers: make(map[int]Observer),
	}
	for _, fn := range cfg.observers {
		m.observers[m.nextObs] = fn
		m.nextObs++
	}
	return m
}

// Push records state as the newest undo entry and clears the redo stack.
// Zero states and states equal to the current undo top are ignored.
func (m *Manager[T]) Push(state T) Status {
	m.mu.Lock()
	if state.IsZero() {
		st := m.statusLocked()
		m.mu.Unlock()
		return st
	}
	if n := len(m.undo); n > 0 && m.undo[n-1].Equal(state) {
		st := m.statusLocked()
		m.mu.Unlock()
		return st
	}

	c, err := safeClone(state)
	if err != nil {
		m.logger.Error("history push failed", "error", err)
		st := m.statusLocked()
		m.mu.Unlock()
		return st
	}

	m.undo = m.appendBounded(m.undo, c)
	clear(m.redo)
	m.redo = m.redo[:0]
	st := m.statusLocked()
	m.mu.Unlock()

	m.notify(st)
	return st
}

// Undo stores current on the redo stack and returns the newest undo entry.
// It reports false, changing nothing, when there is nothing to undo.
func (m *Manager[T]) Undo(current T) (T, bool) {
	return m.swap(current, &m.undo, &m.redo, "undo")
}

// Redo stores current on the undo stack and returns the newest redo entry.
// It reports false, changing nothing, when there is nothing to redo.
func (m *Manager[T]) Redo(current T) (T, bool) {
	return m.swap(current, &m.redo, &m.undo, "redo")
}

func (m *Manager[T]) swap(current T, from, to *[]T, op string) (T, bool) {
	var zero T

	m.mu.Lock()
	n := len(*from)
	if n == 0 {
		m.mu.Unlock()
		return zero, false
	}

	c, err := safeClone(current)
	if err != nil {
		m.logger.Error("history "+op+" failed", "error", err)
		m.mu.Unlock()
		return zero, false
	}

	top := (*from)[n-1]
	(*from)[n-1] = zero
	*from = (*from)[:n-1]
	*to = m.appendBounded(*to, c)
	st := m.statusLocked()
	m.mu.Unlock()

	m.notify(st)
	return top, true
}

// Clear empties both stacks.
func (m *Manager[T]) Clear() Status {
	m.mu.Lock()
	m.undo = nil
	m.redo = nil
	st := m.statusLocked()
	m.mu.Unlock()

	m.notify(st)
	return st
}

// Status returns the current availability of undo and redo.
func (m *Manager[T]) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// UndoLen returns the number of undo entries.
func (m *Manager[T]) UndoLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo)
}

// RedoLen returns the number of redo entries.
func (m *Manager[T]) RedoLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo)
}

// MaxSize returns the bound of the undo stack.
func (m *Manager[T]) MaxSize() int {
	return m.maxSize
}

// Subscribe registers fn for status notifications.
// The returned function removes the subscription.
func (m *Manager[T]) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager[T]) statusLocked() Status {
	return Status{
		CanUndo: len(m.undo) > 0,
		CanRedo: len(m.redo) > 0,
	}
}

// appendBounded appends v, dropping the oldest entries past maxSize.
func (m *Manager[T]) appendBounded(stack []T, v T) []T {
	stack = append(stack, v)
	if over := len(stack) - m.maxSize; over > 0 {
		var zero T
		for i := range over {
			stack[i] = zero
		}
		stack = stack[over:]
	}
	return stack
}

func (m *Manager[T]) notify(st Status) {
	m.mu.Lock()
	obs := make([]Observer, 0, len(m.observers))
	for i := range m.nextObs {
		if fn, ok := m.observers[i]; ok {
			obs = append(obs, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range obs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("history observer panicked", "panic", r)
				}
			}()
			fn(st)
		}()
	}
}

func safeClone[T State[T]](v T) (c T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to clone state: %v", r)
		}
	}()
	return v.Clone(), nil
}
