package authmgr

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWatcher_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	var changes int32
	w, err := NewStoreWatcher(path, func() {
		atomic.AddInt32(&changes, 1)
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(path, []byte(`{"auth.access_token":"x"}`), 0600))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&changes) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStoreWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	var changes int32
	w, err := NewStoreWatcher(path, func() {
		atomic.AddInt32(&changes, 1)
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("x"), 0600))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&changes))
}

func TestStoreWatcher_NotifiesOnRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	var changes int32
	w, err := NewStoreWatcher(path, func() {
		atomic.AddInt32(&changes, 1)
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Close() }()

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&changes) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStoreWatcher_StartIdempotentAndClose(t *testing.T) {
	dir := t.TempDir()
	w, err := NewStoreWatcher(filepath.Join(dir, "credentials.json"), func() {}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	require.NoError(t, w.Start())
	require.NoError(t, w.Close())
}
