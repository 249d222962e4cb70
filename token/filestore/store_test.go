package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DiegoxdGarcia2/smart-condominium/token"
	"github.com/DiegoxdGarcia2/smart-condominium/token/filestore"
	"github.com/stretchr/testify/require"
)

func setupTestFixture(t *testing.T) *filestore.Store {
	t.Helper()
	store, err := filestore.New(filepath.Join(t.TempDir(), "nested", "tokens.json"))
	require.NoError(t, err)
	return store
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file loads an empty pair", func(t *testing.T) {
		store := setupTestFixture(t)
		pair, err := store.Load(ctx)
		require.NoError(t, err)
		require.True(t, pair.IsEmpty())
	})

	t.Run("save then load", func(t *testing.T) {
		store := setupTestFixture(t)
		require.NoError(t, store.Save(ctx, token.Pair{Access: "a1", Refresh: "r1"}))

		pair, err := store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, token.Pair{Access: "a1", Refresh: "r1"}, pair)

		info, err := os.Stat(store.Path())
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("save without refresh keeps the stored refresh token", func(t *testing.T) {
		store := setupTestFixture(t)
		require.NoError(t, store.Save(ctx, token.Pair{Access: "a1", Refresh: "r1"}))
		require.NoError(t, store.Save(ctx, token.Pair{Access: "a2"}))

		pair, err := store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, token.Pair{Access: "a2", Refresh: "r1"}, pair)
	})

	t.Run("clear removes both tokens and is idempotent", func(t *testing.T) {
		store := setupTestFixture(t)
		require.NoError(t, store.Save(ctx, token.Pair{Access: "a1", Refresh: "r1"}))
		require.NoError(t, store.Clear(ctx))
		require.NoError(t, store.Clear(ctx))

		pair, err := store.Load(ctx)
		require.NoError(t, err)
		require.True(t, pair.IsEmpty())
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		store := setupTestFixture(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
		require.NoError(t, os.WriteFile(store.Path(), []byte("{nope"), 0o600))

		_, err := store.Load(ctx)
		require.Error(t, err)
	})

	t.Run("path is required", func(t *testing.T) {
		_, err := filestore.New("")
		require.Error(t, err)
	})
}
