package permission

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryAccess_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("readable directory", func(t *testing.T) {
		dir := t.TempDir()
		assert.NoError(t, DirectoryAccess{Dir: dir}.Check(ctx))
	})

	t.Run("directory with files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644))
		assert.NoError(t, DirectoryAccess{Dir: dir}.Check(ctx))
	})

	t.Run("missing directory", func(t *testing.T) {
		err := DirectoryAccess{Dir: filepath.Join(t.TempDir(), "nope")}.Check(ctx)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "a.jpg")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		err := DirectoryAccess{Dir: file}.Check(ctx)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, DirectoryAccess{Dir: t.TempDir()}.Check(ctx), context.Canceled)
	})
}
