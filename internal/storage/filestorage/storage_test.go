package storage_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mintyfresh/internal/storage"
	filestorage "mintyfresh/internal/storage/filestorage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFileStorage(t *testing.T) *filestorage.LocalFileStorage {
	t.Helper()

	fs, err := filestorage.NewLocalFileStorage(t.TempDir(), "http://test.local/media/", 1<<20)
	require.NoError(t, err)

	return fs
}

func createTestFile(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, writer.Close())

	// Парсим multipart запрос
	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	file.Close()

	return header
}

func writeImage(t *testing.T, root, rel string, modTime time.Time) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte("img"), 0644))
	require.NoError(t, os.Chtimes(full, modTime, modTime))
}

func TestLocalFileStorage_Save(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	t.Run("successful save", func(t *testing.T) {
		testFile := createTestFile(t, "shot.jpg", "test content")

		filePath, size, err := fs.Save(ctx, testFile, "camera")
		require.NoError(t, err)

		assert.Equal(t, "camera/shot.jpg", filePath)
		assert.Equal(t, int64(12), size)

		fullPath, err := fs.GetFullPath(filePath)
		require.NoError(t, err)

		data, err := os.ReadFile(fullPath)
		require.NoError(t, err)
		assert.Equal(t, "test content", string(data))
	})

	t.Run("save with empty subpath", func(t *testing.T) {
		filePath, _, err := fs.Save(ctx, createTestFile(t, "root.png", "x"), "")
		require.NoError(t, err)
		assert.Equal(t, "root.png", filePath)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, _, err := fs.Save(ctx, createTestFile(t, "notes.txt", "x"), "")
		assert.ErrorIs(t, err, storage.ErrInvalidFileType)
	})

	t.Run("too large", func(t *testing.T) {
		_, _, err := fs.Save(ctx, createTestFile(t, "big.jpg", string(make([]byte, 2<<20))), "")
		assert.ErrorIs(t, err, storage.ErrFileTooLarge)
	})

	t.Run("save with context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel() // Отменяем контекст сразу

		_, _, err := fs.Save(ctx, createTestFile(t, "late.jpg", "x"), "subdir")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalFileStorage_Delete(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	t.Run("successful delete", func(t *testing.T) {
		filePath, _, err := fs.Save(ctx, createTestFile(t, "to_delete.jpg", "content"), "")
		require.NoError(t, err)

		require.NoError(t, fs.Delete(ctx, filePath))

		fullPath, _ := fs.GetFullPath(filePath)
		_, err = os.Stat(fullPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("delete non-existent file", func(t *testing.T) {
		assert.ErrorIs(t, fs.Delete(ctx, "nonexistent.jpg"), storage.ErrFileNotFound)
	})
}

func TestLocalFileStorage_Scan(t *testing.T) {
	fs := setupFileStorage(t)
	root := fs.GetBaseDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	writeImage(t, root, "a.jpg", base.Add(3*time.Minute))
	writeImage(t, root, "DCIM/b.png", base.Add(2*time.Minute))
	writeImage(t, root, "c.webp", base.Add(time.Minute))
	writeImage(t, root, "same1.jpg", base)
	writeImage(t, root, "same0.jpg", base)
	writeImage(t, root, ".thumbnails/t.jpg", base.Add(time.Hour))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	items, err := fs.Scan(context.Background())
	require.NoError(t, err)

	var got []string
	for _, item := range items {
		got = append(got, item.Path)
	}
	assert.Equal(t, []string{"a.jpg", "DCIM/b.png", "c.webp", "same0.jpg", "same1.jpg"}, got)
	assert.Equal(t, "image/png", items[1].MimeType)
	assert.Equal(t, int64(3), items[0].Size)

	again, err := fs.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, items, again)

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fs.Scan(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalFileStorage_GetFullPath(t *testing.T) {
	fs := setupFileStorage(t)

	t.Run("returns correct path", func(t *testing.T) {
		got, err := fs.GetFullPath("test/file.jpg")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(fs.GetBaseDir(), "test", "file.jpg"), got)
	})

	t.Run("stays inside root", func(t *testing.T) {
		got, err := fs.GetFullPath("../../etc/passwd")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(fs.GetBaseDir(), "etc", "passwd"), got)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := fs.GetFullPath("")
		assert.ErrorIs(t, err, storage.ErrInvalidPath)
	})
}

func TestLocalFileStorage_URLs(t *testing.T) {
	fs := setupFileStorage(t)

	assert.Equal(t, "http://test.local/media", fs.BaseURL())
	assert.Equal(t, "http://test.local/media/DCIM/a.jpg", fs.MediaURL("DCIM/a.jpg"))
}

func TestNewLocalFileStorage_InvalidDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := filestorage.NewLocalFileStorage(filepath.Join(file, "gallery"), "http://test.local", 0)
	assert.Error(t, err)
}

func TestConcurrentSaves(t *testing.T) {
	fs := setupFileStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := fs.Save(ctx, createTestFile(t, "concurrent.jpg", "data"), "concurrent")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
