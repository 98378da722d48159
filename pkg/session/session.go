package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/sheaf/pkg/core"
	"github.com/aretw0/sheaf/pkg/history"
	"github.com/google/uuid"
)

// DefaultDebounce is the quiet period that closes a burst of text edits.
const DefaultDebounce = 500 * time.Millisecond

// Session edits one note at a time on a private working copy.
//
// Discrete actions are committed at once: the state before the action is
// pushed to history and the working copy is written to the repository.
// Text edits are grouped into bursts; a burst becomes a single history entry
// and a single write once no edit arrived for the debounce period.
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	ctx      context.Context
	repo     *core.Repository
	history  *history.Manager[core.Snapshot]
	note     core.Note
	pending  *burst
	gen      uint64
	closed   bool
	sched    Scheduler
	debounce time.Duration
	logger   *slog.Logger
}

// burst is an uncommitted run of text edits.
type burst struct {
	pre   core.Snapshot
	timer Timer
	gen   uint64
}

// Option configures a Session.
type Option func(*options)

type options struct {
	debounce    time.Duration
	scheduler   Scheduler
	logger      *slog.Logger
	historySize int
}

// WithDebounce sets the quiet period that closes a burst of text edits.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithScheduler overrides how debounce timers are scheduled.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHistorySize bounds the undo stack.
func WithHistorySize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historySize = n
		}
	}
}

// Open starts editing the note with the given id.
func Open(ctx context.Context, repo *core.Repository, noteID int64, opts ...Option) (*Session, error) {
	o := options{
		debounce:    DefaultDebounce,
		scheduler:   RealScheduler{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		historySize: history.DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	note, ok := repo.GetNote(noteID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoteNotFound, noteID)
	}

	id := uuid.New()
	logger := o.logger.With("session", id.String())
	s := &Session{
		id:       id,
		ctx:      context.WithoutCancel(ctx),
		repo:     repo,
		note:     note,
		sched:    o.scheduler,
		debounce: o.debounce,
		logger:   logger,
		history: history.New[core.Snapshot](
			history.WithMaxSize(o.historySize),
			history.WithLogger(logger),
		),
	}
	s.logger.Debug("session opened", "note", noteID)
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// NoteID returns the id of the note being edited.
func (s *Session) NoteID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note.ID
}

// Note returns a copy of the working note, including uncommitted edits.
func (s *Session) Note() core.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note.Clone()
}

// SetTitle replaces the note title as one discrete action.
func (s *Session) SetTitle(ctx context.Context, text string) error {
	return s.discrete(ctx, func(n *core.Note) bool {
		n.SetTitle(text)
		return true
	})
}

// AddToggle appends a new section and returns it.
func (s *Session) AddToggle(ctx context.Context) (core.Toggle, error) {
	var added core.Toggle
	err := s.discrete(ctx, func(n *core.Note) bool {
		added = n.AddToggle()
		return true
	})
	return added, err
}

// ToggleOpen flips the open state of one section.
// It reports false when the section does not exist.
func (s *Session) ToggleOpen(ctx context.Context, toggleID int64) (bool, error) {
	found := false
	err := s.discrete(ctx, func(n *core.Note) bool {
		found = n.ToggleOpen(toggleID)
		return found
	})
	return found, err
}

// EditTitle changes the note title as part of the current text burst.
func (s *Session) EditTitle(text string) error {
	return s.edit(func(n *core.Note) bool {
		n.SetTitle(text)
		return true
	})
}

// EditToggleTitle changes a section title as part of the current text burst.
// It reports false when the section does not exist.
func (s *Session) EditToggleTitle(toggleID int64, text string) (bool, error) {
	found := false
	err := s.edit(func(n *core.Note) bool {
		found = n.SetToggleTitle(toggleID, text)
		return found
	})
	return found, err
}

// EditToggleContent changes a section body as part of the current text burst.
// It reports false when the section does not exist.
func (s *Session) EditToggleContent(toggleID int64, text string) (bool, error) {
	found := false
	err := s.edit(func(n *core.Note) bool {
		found = n.SetToggleContent(toggleID, text)
		return found
	})
	return found, err
}

// Undo restores the state before the last committed change.
// It reports false when there is nothing to undo.
func (s *Session) Undo(ctx context.Context) (bool, error) {
	return s.travel(ctx, s.history.Undo)
}

// Redo reapplies the last undone change.
// It reports false when there is nothing to redo.
func (s *Session) Redo(ctx context.Context) (bool, error) {
	return s.travel(ctx, s.history.Redo)
}

// Flush commits a pending text burst immediately.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.flushLocked(ctx)
}

// Pending reports whether a text burst is waiting to be committed.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Switch commits pending edits and moves the session to another note.
// History does not carry over between notes.
func (s *Session) Switch(ctx context.Context, noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	flushErr := s.flushLocked(ctx)

	note, ok := s.repo.GetNote(noteID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoteNotFound, noteID)
	}
	s.note = note
	s.history.Clear()
	s.logger.Debug("session switched", "note", noteID)
	return flushErr
}

// Close commits pending edits and ends the session.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	err := s.flushLocked(ctx)
	s.history.Clear()
	s.closed = true
	s.logger.Debug("session closed", "note", s.note.ID)
	return err
}

// History exposes the undo/redo history of the current note.
func (s *Session) History() *history.Manager[core.Snapshot] {
	return s.history
}

// Status reports whether undo and redo are available.
func (s *Session) Status() history.Status {
	return s.history.Status()
}

// Subscribe registers fn for history status changes.
// fn runs while the session is locked and must not call back into it.
func (s *Session) Subscribe(fn history.Observer) (unsubscribe func()) {
	return s.history.Subscribe(fn)
}

// Dirty reports whether the working copy differs from the stored note.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.repo.GetNote(s.note.ID)
	if !ok {
		return true
	}
	return !stored.Snapshot().Equal(s.note.Snapshot())
}

// Diff describes the uncommitted changes of the working copy.
// It is empty when the working copy matches the stored note.
func (s *Session) Diff() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.repo.GetNote(s.note.ID)
	if !ok {
		stored = core.Note{ID: s.note.ID}
	}
	return renderDiff(stored, s.note)
}

func (s *Session) discrete(ctx context.Context, mutate func(*core.Note) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.flushLocked(ctx); err != nil {
		s.logger.Warn("flush before action failed", "error", err)
	}

	pre := s.note.Snapshot()
	if !mutate(&s.note) || pre.Equal(s.note.Snapshot()) {
		return nil
	}
	s.history.Push(pre)
	return s.persistLocked(ctx)
}

func (s *Session) edit(mutate func(*core.Note) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	pre := s.note.Snapshot()
	if !mutate(&s.note) {
		return nil
	}
	if s.pending == nil && pre.Equal(s.note.Snapshot()) {
		return nil
	}

	if s.pending == nil {
		s.pending = &burst{pre: pre}
	} else if s.pending.timer != nil {
		s.pending.timer.Stop()
	}

	s.gen++
	gen := s.gen
	s.pending.gen = gen
	s.pending.timer = s.sched.AfterFunc(s.debounce, func() {
		s.commitBurst(gen)
	})
	return nil
}

// commitBurst runs when a debounce timer fires. Timers superseded by a
// later edit carry a stale generation and do nothing.
func (s *Session) commitBurst(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pending == nil || s.pending.gen != gen {
		return
	}
	if err := s.flushLocked(s.ctx); err != nil {
		s.logger.Warn("debounced commit failed", "error", err)
	}
}

func (s *Session) flushLocked(ctx context.Context) error {
	b := s.pending
	if b == nil {
		return nil
	}
	s.pending = nil
	if b.timer != nil {
		b.timer.Stop()
	}
	// A burst that ended where it started leaves nothing to undo or save.
	if b.pre.Equal(s.note.Snapshot()) {
		return nil
	}

	s.history.Push(b.pre)
	return s.persistLocked(ctx)
}

func (s *Session) travel(ctx context.Context, step func(core.Snapshot) (core.Snapshot, bool)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	if err := s.flushLocked(ctx); err != nil {
		s.logger.Warn("flush before history step failed", "error", err)
	}

	target, ok := step(s.note.Snapshot())
	if !ok {
		return false, nil
	}
	s.note.Restore(target)
	return true, s.persistLocked(ctx)
}

func (s *Session) persistLocked(ctx context.Context) error {
	if err := s.repo.UpdateNote(ctx, s.note.Clone()); err != nil {
		return fmt.Errorf("failed to save note %d: %w", s.note.ID, err)
	}
	if stored, ok := s.repo.GetNote(s.note.ID); ok {
		s.note.Updated = stored.Updated
	}
	return nil
}
