package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SetGetDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.Get("missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	require.NoError(t, store.Set("auth.access_token", "secret"))
	got, err = store.Get("auth.access_token", "")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, store.Delete("auth.access_token"))
	got, err = store.Get("auth.access_token", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set("key", "value"))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := second.Get("key", "")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestFileStore_ObservesExternalWrites(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	// Another process rewrites the file behind our back.
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"key":"external"}`), 0600))

	got, err := store.Get("key", "")
	require.NoError(t, err)
	assert.Equal(t, "external", got)
}

func TestFileStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("key", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_CorruptFileFailsConstruction(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("not json"), 0600))

	_, err := NewFileStore(dir)
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.Get("key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	require.NoError(t, store.Set("key", "value"))
	got, err = store.Get("key", "")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	require.NoError(t, store.Delete("key"))
	require.NoError(t, store.Delete("key"), "deleting an absent key is not an error")
	got, err = store.Get("key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}
