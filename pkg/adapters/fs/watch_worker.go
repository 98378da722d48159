package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/sheaf/pkg/storage"
)

// debounceWindow is the quiet period per key before an event is delivered.
const debounceWindow = 50 * time.Millisecond

type watchWorker struct {
	*worker.BaseWorker
	backend   *Backend
	pattern   string
	events    chan storage.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(b *Backend, pattern string, events chan storage.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		backend:    b,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.backend.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.backend.Path, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(debounceWindow)
	w.backend.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

func (w *watchWorker) logger() *slog.Logger {
	return w.backend.config.Logger
}

// mapEventType translates an fsnotify operation. Chmod-only events are dropped.
func mapEventType(event fsnotify.Event) storage.EventType {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return storage.EventDelete
	case event.Has(fsnotify.Create):
		return storage.EventCreate
	case event.Has(fsnotify.Write):
		return storage.EventModify
	default:
		return ""
	}
}

// processFilesystemEvent filters, maps and debounces one raw event.
// It reports whether the event was forwarded.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	w.logger().Debug("event received", "name", event.Name)

	key, ok := keyFromName(filepath.Base(event.Name))
	if !ok {
		return false
	}
	if match, _ := doublestar.Match(w.pattern, key); !match {
		return false
	}

	eType := mapEventType(event)
	if eType == "" {
		return false
	}
	if w.isOwnChange(key, eType, event.Name) {
		w.logger().Debug("ignoring own write", "key", key)
		return false
	}

	w.sendEvent(ctx, storage.Event{
		Type:      eType,
		Key:       key,
		Timestamp: time.Now().Unix(),
	})
	return true
}

// isOwnChange compares the file against what the backend last wrote.
func (w *watchWorker) isOwnChange(key string, eType storage.EventType, path string) bool {
	writes := w.backend.writes
	if eType == storage.EventDelete {
		return writes.ownRemove(key)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Gone again already; the removal event will follow.
		return false
	}
	if writes.ownWrite(key, data) {
		return true
	}
	writes.forget(key)
	return false
}

// sendEvent enqueues an event via the debouncer.
func (w *watchWorker) sendEvent(ctx context.Context, event storage.Event) {
	w.debouncer.add(event, func(e storage.Event) {
		w.backend.recordEvent()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// reconcile emits a modification for every matching key. It runs after the
// kernel queue overflowed and individual events were lost.
func (w *watchWorker) reconcile(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		entries, err := w.backend.Entries(ctx)
		if err != nil {
			w.logger().Error("reconcile failed", "error", err)
			return err
		}
		for _, e := range entries {
			if match, _ := doublestar.Match(w.pattern, e.Key); match {
				w.sendEvent(ctx, storage.Event{
					Type:      storage.EventModify,
					Key:       e.Key,
					Timestamp: time.Now().Unix(),
				})
			}
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.reportError(fmt.Errorf("reconcile panic: %w", err))
	}))
}

func (w *watchWorker) reportError(err error) {
	w.logger().Error("fsnotify error", "error", err)
	if w.backend.config.ErrorHandler != nil {
		w.backend.config.ErrorHandler(err)
	}
}

// run is the main event loop. It owns the events channel and closes it on exit.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.logger().Enabled(ctx, slog.LevelDebug) {
				w.logger().Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.logger().Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer close(w.events)
	defer w.backend.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// In-flight emissions must finish before the channel closes.
	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.reportError(wErr)
			if errors.Is(wErr, fsnotify.ErrEventOverflow) {
				w.reconcile(ctx)
			}
		}
	}
}
