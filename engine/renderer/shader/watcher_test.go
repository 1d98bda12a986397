package shader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, WithDebounce(300*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "forward_shading.frag")
	for i := range 3 {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case name := <-w.Requests():
		assert.Equal(t, "forward_shading.frag", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no recompile request")
	}

	select {
	case name := <-w.Requests():
		t.Fatalf("unexpected second request for %s", name)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestWatcherCloseTwice(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
