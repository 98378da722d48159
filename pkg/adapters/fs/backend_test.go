package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sheaf/pkg/git"
	"github.com/aretw0/sheaf/pkg/storage"
)

func setupBackend(t *testing.T, cfg Config) *Backend {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = t.TempDir()
	}
	b := NewBackend(cfg)
	require.NoError(t, b.Initialize(context.Background()))
	return b
}

func TestBackend_PutGetRemove(t *testing.T) {
	b := setupBackend(t, Config{})
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "notes", []byte(`[]`)))

	data, err := b.Get(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	_, err = os.Stat(filepath.Join(b.Path, "notes.json"))
	require.NoError(t, err, "stored as <key>.json")

	require.NoError(t, b.Remove(ctx, "notes"))
	require.NoError(t, b.Remove(ctx, "notes"), "removing twice is fine")

	_, err = b.Get(ctx, "notes")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBackend_NoTempFilesLeft(t *testing.T) {
	b := setupBackend(t, Config{})
	ctx := context.Background()
	for range 5 {
		require.NoError(t, b.Put(ctx, "notes", []byte(`[1]`)))
	}

	files, err := os.ReadDir(b.Path)
	require.NoError(t, err)
	for _, f := range files {
		assert.False(t, strings.HasPrefix(f.Name(), TempFilePrefix), "leftover %s", f.Name())
	}
}

func TestBackend_InvalidKeys(t *testing.T) {
	b := setupBackend(t, Config{})
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".hidden", TempFilePrefix + "x"} {
		assert.Error(t, b.Put(ctx, key, []byte(`1`)), key)
	}
}

func TestBackend_Entries(t *testing.T) {
	b := setupBackend(t, Config{})
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "b", []byte(`22`)))
	require.NoError(t, b.Put(ctx, "a", []byte(`1`)))
	require.NoError(t, os.WriteFile(filepath.Join(b.Path, "readme.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(b.Path, "dir.json"), 0o755))

	entries, err := b.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, int64(1), entries[0].Size)
	assert.Equal(t, "b", entries[1].Key)
	assert.Equal(t, int64(2), entries[1].Size)
}

func TestBackend_Quota(t *testing.T) {
	b := setupBackend(t, Config{Quota: 10})
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "a", []byte("12345")))
	require.NoError(t, b.Put(ctx, "a", []byte("1234567890")), "replacing a key frees its old size")

	err := b.Put(ctx, "b", []byte("1"))
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
}

func TestBackend_GatewayEvicts(t *testing.T) {
	b := setupBackend(t, Config{Quota: 12})
	ctx := context.Background()
	gw := storage.NewGateway(b)

	require.NoError(t, gw.Save(ctx, "old", "12345"))
	require.NoError(t, gw.Save(ctx, "notes", "12345"))

	_, err := b.Get(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrNotFound, "oldest unrelated key was evicted")
	var got string
	assert.True(t, gw.Load(ctx, "notes", &got))
	assert.Equal(t, "12345", got)
}

func TestBackend_MustExist(t *testing.T) {
	b := NewBackend(Config{Path: filepath.Join(t.TempDir(), "missing"), MustExist: true})
	assert.Error(t, b.Initialize(context.Background()))
}

func TestBackend_Versioning(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	b := setupBackend(t, Config{Versioning: true})
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "notes", []byte(`[]`)))
	require.NoError(t, b.Put(ctx, "notes", []byte(`[1]`)))

	log, err := b.History(ctx, "notes", 10)
	require.NoError(t, err)
	assert.Len(t, log, 2)

	ignore, err := os.ReadFile(filepath.Join(b.Path, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), LockName)

	require.NoError(t, b.Remove(ctx, "notes"))
	log, err = b.History(ctx, "notes", 10)
	require.NoError(t, err)
	assert.Len(t, log, 3)
	assert.Contains(t, log[0], "delete notes")
}

func TestBackend_HistoryWithoutVersioning(t *testing.T) {
	b := setupBackend(t, Config{})
	log, err := b.History(context.Background(), "notes", 5)
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestBackend_State(t *testing.T) {
	b := setupBackend(t, Config{Quota: 100})
	require.NoError(t, b.Put(context.Background(), "notes", []byte(`[]`)))

	st, ok := b.State().(BackendState)
	require.True(t, ok)
	assert.Equal(t, b.Path, st.Path)
	assert.Equal(t, int64(100), st.Quota)
	assert.Equal(t, 1, st.TrackedWrites)
	assert.False(t, st.WatcherActive)
	assert.Equal(t, "storage", b.ComponentType())
}
