package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sheaf/pkg/adapters/sqlite"
	"github.com/aretw0/sheaf/pkg/core"
	"github.com/aretw0/sheaf/pkg/storage"
)

func setupBackend(t *testing.T, quota int64) *sqlite.Backend {
	t.Helper()
	b, err := sqlite.Open(context.Background(), sqlite.Config{
		Path:  filepath.Join(t.TempDir(), "sheaf.db"),
		Quota: quota,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_PutGetRemove(t *testing.T) {
	b := setupBackend(t, 0)
	ctx := context.Background()

	_, err := b.Get(ctx, "notes")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, b.Put(ctx, "notes", []byte(`[]`)))
	require.NoError(t, b.Put(ctx, "notes", []byte(`[1]`)))

	data, err := b.Get(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(data))

	require.NoError(t, b.Remove(ctx, "notes"))
	require.NoError(t, b.Remove(ctx, "notes"))
	_, err = b.Get(ctx, "notes")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBackend_Entries(t *testing.T) {
	b := setupBackend(t, 0)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "b", []byte(`22`)))
	require.NoError(t, b.Put(ctx, "a", []byte(`1`)))

	entries, err := b.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, int64(1), entries[0].Size)
	assert.WithinDuration(t, time.Now(), entries[0].ModTime, time.Minute)
}

func TestBackend_Quota(t *testing.T) {
	b := setupBackend(t, 10)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "a", []byte("12345")))
	require.NoError(t, b.Put(ctx, "a", []byte("1234567890")))
	assert.ErrorIs(t, b.Put(ctx, "b", []byte("1")), storage.ErrQuotaExceeded)
}

func TestBackend_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheaf.db")
	ctx := context.Background()

	b, err := sqlite.Open(ctx, sqlite.Config{Path: path})
	require.NoError(t, err)
	repo, err := core.NewRepository(ctx, storage.NewGateway(b))
	require.NoError(t, err)
	n, err := repo.CreateNote(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b, err = sqlite.Open(ctx, sqlite.Config{Path: path})
	require.NoError(t, err)
	defer b.Close()
	repo, err = core.NewRepository(ctx, storage.NewGateway(b))
	require.NoError(t, err)

	got, ok := repo.GetNote(n.ID)
	require.True(t, ok)
	assert.Len(t, got.Toggles, 3)
}
