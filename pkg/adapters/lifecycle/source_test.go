package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sheaflc "github.com/aretw0/sheaf/pkg/adapters/lifecycle"
	"github.com/aretw0/sheaf/pkg/storage"
)

func TestSourceForwardsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan storage.Event, 2)
	src := sheaflc.NewSource(in)
	require.NoError(t, src.Start(ctx))

	in <- storage.Event{Type: storage.EventModify, Key: "notes"}
	in <- storage.Event{Type: storage.EventDelete, Key: "notes"}
	close(in)

	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-src.Events():
			if !ok {
				assert.Equal(t, []string{"MODIFY notes", "DELETE notes"}, got)
				return
			}
			got = append(got, e.String())
		case <-timeout:
			t.Fatal("source did not close")
		}
	}
}

func TestSourceFiltersKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan storage.Event, 3)
	src := sheaflc.NewSource(in, "notes")
	require.NoError(t, src.Start(ctx))

	in <- storage.Event{Type: storage.EventModify, Key: "drafts"}
	in <- storage.Event{Type: storage.EventCreate, Key: "notes"}
	close(in)

	var got []string
	for e := range src.Events() {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"CREATE notes"}, got)
}

func TestSourceStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := sheaflc.NewSource(make(chan storage.Event))
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop")
	}
}
