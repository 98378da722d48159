package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sheaf/pkg/storage"
)

func startWatch(t *testing.T, b *Backend, pattern string) (<-chan storage.Event, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	events, err := b.Watch(ctx, pattern)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return b.State().(BackendState).WatcherActive
	}, time.Second, 10*time.Millisecond)
	return events, cancel
}

func expectEvent(t *testing.T, events <-chan storage.Event) storage.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return storage.Event{}
	}
}

func expectNoEvent(t *testing.T, events <-chan storage.Event, key string) {
	t.Helper()
	timeout := time.After(300 * time.Millisecond)
	for {
		select {
		case e := <-events:
			if e.Key == key {
				t.Fatalf("unexpected event %v", e)
			}
		case <-timeout:
			return
		}
	}
}

func TestWatch_ExternalCreate(t *testing.T) {
	b := setupBackend(t, Config{})
	events, cancel := startWatch(t, b, "*")
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(b.Path, "notes.json"), []byte(`[]`), 0o644))

	e := expectEvent(t, events)
	assert.Equal(t, storage.EventCreate, e.Type, "create followed by write stays a create")
	assert.Equal(t, "notes", e.Key)
}

func TestWatch_IgnoresOwnWrites(t *testing.T) {
	b := setupBackend(t, Config{})
	ctx := context.Background()
	events, cancel := startWatch(t, b, "*")
	defer cancel()

	require.NoError(t, b.Put(ctx, "notes", []byte(`[]`)))
	expectNoEvent(t, events, "notes")

	// A different content written by someone else is reported.
	require.NoError(t, writeFileAtomic(filepath.Join(b.Path, "notes.json"), []byte(`[1]`), 0o644))
	e := expectEvent(t, events)
	assert.Equal(t, "notes", e.Key)

	require.NoError(t, b.Remove(ctx, "notes"))
	expectNoEvent(t, events, "notes")
}

func TestWatch_ExternalDelete(t *testing.T) {
	b := setupBackend(t, Config{})
	require.NoError(t, os.WriteFile(filepath.Join(b.Path, "notes.json"), []byte(`[]`), 0o644))
	events, cancel := startWatch(t, b, "*")
	defer cancel()

	require.NoError(t, os.Remove(filepath.Join(b.Path, "notes.json")))

	e := expectEvent(t, events)
	assert.Equal(t, storage.EventDelete, e.Type)
}

func TestWatch_Pattern(t *testing.T) {
	b := setupBackend(t, Config{})
	events, cancel := startWatch(t, b, "notes*")
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(b.Path, "other.json"), []byte(`1`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b.Path, "notes-archive.json"), []byte(`1`), 0o644))

	e := expectEvent(t, events)
	assert.Equal(t, "notes-archive", e.Key)
}

func TestWatch_InvalidPattern(t *testing.T) {
	b := setupBackend(t, Config{})
	_, err := b.Watch(context.Background(), "[")
	assert.Error(t, err)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	b := setupBackend(t, Config{})
	events, cancel := startWatch(t, b, "*")
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Eventually(t, func() bool {
		return !b.State().(BackendState).WatcherActive
	}, time.Second, 10*time.Millisecond)
}

func TestDebouncer_Coalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var got []storage.Event
	emit := func(e storage.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	}

	d.add(storage.Event{Type: storage.EventCreate, Key: "a"}, emit)
	d.add(storage.Event{Type: storage.EventModify, Key: "a"}, emit)
	d.add(storage.Event{Type: storage.EventModify, Key: "b"}, emit)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	d.stopAndWait(time.Second)
	d.add(storage.Event{Type: storage.EventModify, Key: "c"}, emit)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	byKey := map[string]storage.EventType{}
	for _, e := range got {
		byKey[e.Key] = e.Type
	}
	assert.Equal(t, storage.EventCreate, byKey["a"])
	assert.Equal(t, storage.EventModify, byKey["b"])
}

func TestMergeEvents(t *testing.T) {
	create := storage.Event{Type: storage.EventCreate, Key: "k"}
	modify := storage.Event{Type: storage.EventModify, Key: "k"}
	remove := storage.Event{Type: storage.EventDelete, Key: "k"}

	assert.Equal(t, storage.EventCreate, mergeEvents(create, modify).Type)
	assert.Equal(t, storage.EventDelete, mergeEvents(create, remove).Type)
	assert.Equal(t, storage.EventCreate, mergeEvents(remove, create).Type)
}
