package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	for _, marker := range []string{"sheaf.yaml", "notes.json", "sheaf.db"} {
		t.Run(marker, func(t *testing.T) {
			store := filepath.Join(t.TempDir(), "store")
			nested := filepath.Join(store, "a", "b")
			require.NoError(t, os.MkdirAll(nested, 0755))
			require.NoError(t, os.WriteFile(filepath.Join(store, marker), []byte("{}"), 0644))

			for _, start := range []string{store, filepath.Join(store, "a"), nested} {
				got, err := FindRoot(start)
				require.NoError(t, err, "start %s", start)
				assert.Equal(t, filepath.Clean(store), filepath.Clean(got))
			}
		})
	}
}

func TestFindRoot_NearestWins(t *testing.T) {
	outer := t.TempDir()
	inner := filepath.Join(outer, "inner")
	require.NoError(t, os.MkdirAll(inner, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outer, "sheaf.yaml"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inner, "notes.json"), []byte("[]"), 0644))

	got, err := FindRoot(inner)
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestFindRoot_NotFound(t *testing.T) {
	empty := t.TempDir()
	if _, err := FindRoot(filepath.Dir(empty)); err == nil {
		t.Skip("a parent of the temp dir already looks like a store")
	}

	_, err := FindRoot(empty)
	assert.Error(t, err)
}
