// Package local_test tests the on-disk cache store.
package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
	"github.com/hydavinci/formula-1-schedule/internal/cache/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", ".cache")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

func TestStoreUsesKeyAsFileName(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)

	key := cache.NewKey("results", 2024).WithDiscriminator("last")
	require.NoError(t, store.Put(ctx, key, []byte(`{"round":"5"}`)))

	data, err := os.ReadFile(filepath.Join(dir, "results_2024_last.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":"5"}`, string(data))

	rec, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, data, rec.Payload)
	assert.False(t, rec.StoredAt.IsZero())
}

func TestStoreMiss(t *testing.T) {
	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.Get(context.Background(), cache.NewKey("ergast", 1950))
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestStoreRejectsTraversal(t *testing.T) {
	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	err = store.Put(context.Background(), cache.Key{Source: "../../escape", Year: 2024}, []byte("{}"))
	assert.Error(t, err)
}

func TestStoreClearRemovesOnlyJSON(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, cache.NewKey("ergast", 2024), []byte("[]")))
	require.NoError(t, store.Put(ctx, cache.NewKey("formula1_com", 2024), []byte("[]")))
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0o600))

	require.NoError(t, store.Clear(ctx))

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	_, err = os.Stat(keep)
	assert.NoError(t, err)
}

func TestStoreRelativeBaseDir(t *testing.T) {
	t.Chdir(t.TempDir())
	ctx := context.Background()

	for _, dir := range []string{".", "./cache", "cache/"} {
		store, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err, dir)

		key := cache.NewKey("ergast", 2024)
		require.NoError(t, store.Put(ctx, key, []byte("[]")), dir)
		rec, err := store.Get(ctx, key)
		require.NoError(t, err, dir)
		assert.Equal(t, []byte("[]"), rec.Payload)
		require.NoError(t, store.Clear(ctx), dir)
	}
}
