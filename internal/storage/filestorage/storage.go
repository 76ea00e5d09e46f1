package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/storage"
)

// FileStorage интерфейс для работы с каталогом галереи
type FileStorage interface {
	Save(ctx context.Context, file *multipart.FileHeader, subPath string) (filePath string, fileSize int64, err error)
	Delete(ctx context.Context, filePath string) error
	Scan(ctx context.Context) ([]models.MediaItem, error)
	GetFullPath(relativePath string) (string, error)
	MediaURL(relativePath string) string
	BaseURL() string
	GetBaseDir() string
}

// LocalFileStorage галерея в локальной файловой системе
type LocalFileStorage struct {
	baseDir string // Корень галереи (например: "./gallery")
	baseURL string // Базовый URL для отдачи файлов (например: "http://localhost:8080/api/v1/gallery/media")
	maxSize int64  // Максимальный размер загружаемого снимка, 0 - без ограничения
}

func NewLocalFileStorage(baseDir, baseURL string, maxSize int64) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Save сохраняет снимок с камеры в галерею
func (s *LocalFileStorage) Save(ctx context.Context, file *multipart.FileHeader, subPath string) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	if !models.IsSupportedImage(file.Filename) {
		return "", 0, storage.ErrInvalidFileType
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return "", 0, storage.ErrFileTooLarge
	}

	relPath := filepath.Join(subPath, filepath.Base(file.Filename))
	filePath, err := s.GetFullPath(relPath)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directories: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	// Создаем целевой файл
	dst, err := os.Create(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	done := make(chan struct{})
	var size int64
	var copyErr error

	go func() {
		size, copyErr = io.Copy(dst, src)
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			_ = os.Remove(filePath)
			return "", 0, fmt.Errorf("failed to copy file: %w", copyErr)
		}
	case <-ctx.Done():
		<-done
		_ = os.Remove(filePath)
		return "", 0, ctx.Err()
	}

	return filepath.ToSlash(relPath), size, nil
}

// Delete удаляет снимок из галереи
func (s *LocalFileStorage) Delete(ctx context.Context, filePath string) error {
	fullPath, err := s.GetFullPath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrFileNotFound
		}
		return err
	}

	return nil
}

// Scan обходит галерею и возвращает поддерживаемые изображения, новые первыми
func (s *LocalFileStorage) Scan(ctx context.Context) ([]models.MediaItem, error) {
	const op = "filestorage.LocalFileStorage.Scan"

	var items []models.MediaItem

	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			// Скрытые каталоги (.thumbnails, .trash) в галерее не показываются
			if p != s.baseDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !models.IsSupportedImage(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// файл удален во время обхода
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}

		items = append(items, models.MediaItem{
			Path:       filepath.ToSlash(rel),
			Size:       info.Size(),
			MimeType:   models.ImageMimeType(d.Name()),
			ModifiedAt: info.ModTime().UTC(),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ModifiedAt.Equal(items[j].ModifiedAt) {
			return items[i].ModifiedAt.After(items[j].ModifiedAt)
		}
		return items[i].Path < items[j].Path
	})

	return items, nil
}

// Load реализует загрузчик коллекции галереи, scope не используется
func (s *LocalFileStorage) Load(ctx context.Context, _ string) ([]models.MediaItem, error) {
	return s.Scan(ctx)
}

// GetFullPath возвращает полный путь к файлу на диске
func (s *LocalFileStorage) GetFullPath(relativePath string) (string, error) {
	cleaned := path.Clean("/" + filepath.ToSlash(relativePath))
	if cleaned == "/" {
		return "", storage.ErrInvalidPath
	}

	return filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

// MediaURL возвращает URL, по которому клиент загружает изображение
func (s *LocalFileStorage) MediaURL(relativePath string) string {
	return s.baseURL + "/" + strings.TrimPrefix(filepath.ToSlash(relativePath), "/")
}

// BaseURL возвращает базовый URL для доступа к файлам
func (s *LocalFileStorage) BaseURL() string {
	return s.baseURL
}

func (s *LocalFileStorage) GetBaseDir() string {
	return s.baseDir
}
