package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"sync"

	"mintyfresh/internal/collection"
	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/lib/logger/sl"
	"mintyfresh/internal/permission"
	"mintyfresh/internal/storage"
	"mintyfresh/internal/transport/http/dto"
)

// CameraDir подкаталог галереи для снимков с камеры
const CameraDir = "Camera"

type MediaStore interface {
	Save(ctx context.Context, file *multipart.FileHeader, subPath string) (string, int64, error)
	Delete(ctx context.Context, filePath string) error
	GetFullPath(relativePath string) (string, error)
	MediaURL(relativePath string) string
}

// GalleryService контроллер экрана галереи. Наблюдатель изменений медиахранилища
// захватывается в Attach и освобождается ровно один раз в Detach.
type GalleryService struct {
	log      *slog.Logger
	provider *collection.Provider[models.MediaItem]
	files    MediaStore
	checker  permission.Checker
	source   collection.ChangeSource
	explain  permission.Explain

	mu  sync.Mutex
	reg *collection.Registration
}

func NewGalleryService(
	log *slog.Logger,
	provider *collection.Provider[models.MediaItem],
	files MediaStore,
	checker permission.Checker,
	source collection.ChangeSource,
	explain permission.Explain,
) *GalleryService {
	return &GalleryService{
		log:      log,
		provider: provider,
		files:    files,
		checker:  checker,
		source:   source,
		explain:  explain,
	}
}

// Attach проверяет разрешение, подписывается на изменения хранилища и загружает галерею.
// При отказе в доступе возвращает состояние объяснения без загрузки.
func (s *GalleryService) Attach(ctx context.Context) (*dto.GalleryResponse, error) {
	const op = "service.GalleryService.Attach"

	log := s.log.With(slog.String("op", op))

	if resp, err := s.gate(ctx); resp != nil || err != nil {
		return resp, err
	}

	if err := s.observe(); err != nil {
		log.Error("failed to register change observer", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c := s.provider.Load(ctx, models.GalleryScope)
	log.Info("gallery attached", slog.Int("items", c.Len()))

	return s.toResponse(c), nil
}

// Detach освобождает наблюдатель изменений. Повторный вызов ничего не делает.
func (s *GalleryService) Detach() error {
	const op = "service.GalleryService.Detach"

	s.mu.Lock()
	reg := s.reg
	s.reg = nil
	s.mu.Unlock()

	if reg == nil {
		return nil
	}

	if err := reg.Unregister(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.With(slog.String("op", op)).Info("gallery detached")

	return nil
}

// Gallery текущее состояние галереи. Первое обращение выполняет Attach.
func (s *GalleryService) Gallery(ctx context.Context) (*dto.GalleryResponse, error) {
	if !s.attached() {
		return s.Attach(ctx)
	}

	if resp, err := s.gate(ctx); resp != nil || err != nil {
		return resp, err
	}

	return s.toResponse(s.provider.Current(models.GalleryScope)), nil
}

func (s *GalleryService) Reload(ctx context.Context) (*dto.GalleryResponse, error) {
	if !s.attached() {
		return s.Attach(ctx)
	}

	if resp, err := s.gate(ctx); resp != nil || err != nil {
		return resp, err
	}

	return s.toResponse(s.provider.Load(ctx, models.GalleryScope)), nil
}

// Watch поток состояний галереи до отмены ctx
func (s *GalleryService) Watch(ctx context.Context) (<-chan *dto.GalleryResponse, error) {
	const op = "service.GalleryService.Watch"

	if err := s.checker.Check(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.attached() {
		if _, err := s.Attach(ctx); err != nil {
			return nil, err
		}
	}

	in := s.provider.Watch(ctx, models.GalleryScope)
	out := make(chan *dto.GalleryResponse)

	go func() {
		defer close(out)

		for c := range in {
			select {
			case out <- s.toResponse(c):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// AddPhoto сохраняет снимок с камеры и перечитывает галерею
func (s *GalleryService) AddPhoto(ctx context.Context, file *multipart.FileHeader) (*dto.MediaItemResponse, error) {
	const op = "service.GalleryService.AddPhoto"

	log := s.log.With(
		slog.String("op", op),
		slog.String("filename", file.Filename),
	)

	if err := s.checker.Check(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	path, size, err := s.files.Save(ctx, file, CameraDir)
	if err != nil {
		log.Warn("failed to save photo", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("photo saved", slog.String("path", path), slog.Int64("size", size))

	c := s.provider.Load(ctx, models.GalleryScope)
	if i := c.IndexOf(path); i >= 0 {
		resp := dto.FromMediaItem(c.Items[i], s.files.MediaURL(path))
		return &resp, nil
	}

	resp := dto.FromMediaItem(models.MediaItem{
		Path:     path,
		Size:     size,
		MimeType: models.ImageMimeType(path),
	}, s.files.MediaURL(path))

	return &resp, nil
}

// DeletePhoto удаляет снимок из галереи и перечитывает ее
func (s *GalleryService) DeletePhoto(ctx context.Context, path string) (*dto.GalleryResponse, error) {
	const op = "service.GalleryService.DeletePhoto"

	log := s.log.With(
		slog.String("op", op),
		slog.String("path", path),
	)

	if err := s.checker.Check(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.files.Delete(ctx, path); err != nil {
		log.Warn("failed to delete photo", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("photo deleted")

	return s.toResponse(s.provider.Load(ctx, models.GalleryScope)), nil
}

// MediaFile абсолютный путь к снимку галереи для отдачи клиенту
func (s *GalleryService) MediaFile(ctx context.Context, path string) (string, error) {
	const op = "service.GalleryService.MediaFile"

	if err := s.checker.Check(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !models.IsSupportedImage(path) {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidFileType)
	}

	full, err := s.files.GetFullPath(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return full, nil
}

func (s *GalleryService) attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reg != nil
}

func (s *GalleryService) observe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reg != nil {
		return nil
	}

	reg, err := s.provider.RegisterChangeObserver(models.GalleryScope, s.source)
	if err != nil {
		return err
	}
	s.reg = reg

	return nil
}

// gate возвращает состояние отказа, если разрешения нет
func (s *GalleryService) gate(ctx context.Context) (*dto.GalleryResponse, error) {
	err := s.checker.Check(ctx)
	if err == nil {
		return nil, nil
	}

	if errors.Is(err, permission.ErrPermissionDenied) {
		s.log.Info("media permission denied", sl.Err(err))

		explain := s.explain
		return &dto.GalleryResponse{
			Permission: dto.PermissionDenied,
			Explain:    &explain,
			Items:      []dto.MediaItemResponse{},
		}, nil
	}

	return nil, fmt.Errorf("service.GalleryService.gate: %w", err)
}

func (s *GalleryService) toResponse(c collection.Collection[models.MediaItem]) *dto.GalleryResponse {
	resp := &dto.GalleryResponse{
		Permission: dto.PermissionGranted,
		Items:      make([]dto.MediaItemResponse, 0, c.Len()),
		Version:    c.Version,
	}

	for _, item := range c.Items {
		resp.Items = append(resp.Items, dto.FromMediaItem(item, s.files.MediaURL(item.Path)))
	}
	if c.Failed() {
		resp.Error = c.Err.Error()
	}

	return resp
}
