package storage_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	filestorage "mintyfresh/internal/storage/filestorage"

	"github.com/stretchr/testify/require"
)

func TestDirWatcher(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := filestorage.NewDirWatcher(log, dir, 50*time.Millisecond)

	changes := make(chan struct{}, 16)
	stop, err := w.Watch(func() { changes <- struct{}{} })
	require.NoError(t, err)

	expectChange := func(t *testing.T) {
		t.Helper()
		select {
		case <-changes:
		case <-time.After(2 * time.Second):
			t.Fatal("no change notification")
		}
	}

	expectQuiet := func(t *testing.T) {
		t.Helper()
		select {
		case <-changes:
			t.Fatal("unexpected change notification")
		case <-time.After(250 * time.Millisecond):
		}
	}

	t.Run("image added", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644))
		expectChange(t)
	})

	t.Run("burst is coalesced", func(t *testing.T) {
		for _, name := range []string{"b.jpg", "c.jpg", "d.jpg"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
		}
		expectChange(t)
		expectQuiet(t)
	})

	t.Run("other files ignored", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
		expectQuiet(t)
	})

	t.Run("image removed in new subdirectory", func(t *testing.T) {
		sub := filepath.Join(dir, "DCIM")
		require.NoError(t, os.Mkdir(sub, 0755))
		expectChange(t)

		require.NoError(t, os.WriteFile(filepath.Join(sub, "e.png"), []byte("x"), 0644))
		expectChange(t)
		require.NoError(t, os.Remove(filepath.Join(sub, "e.png")))
		expectChange(t)
	})

	require.NoError(t, stop())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.jpg"), []byte("x"), 0644))
	expectQuiet(t)
}
