package auth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/smartmarket/auth"
)

func TestFileTokenStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	store := auth.NewFileTokenStore(dir)

	t.Run("missing file loads empty", func(t *testing.T) {
		token, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, store.Save("tok-1"))
		token, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)

		info, err := os.Stat(store.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("survives a new store instance", func(t *testing.T) {
		token, err := auth.NewFileTokenStore(dir).Load()
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		require.NoError(t, store.Clear())
		require.NoError(t, store.Clear())
		token, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func TestMemoryTokenStore(t *testing.T) {
	store := auth.NewMemoryTokenStore()
	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("tok-2"))
	token, _ = store.Load()
	assert.Equal(t, "tok-2", token)

	require.NoError(t, store.Clear())
	token, _ = store.Load()
	assert.Empty(t, token)
}
