package models

import (
	"path"
	"strings"
	"time"
)

// GalleryScope единственный scope галереи устройства
const GalleryScope = "gallery"

// MediaItem фотография из галереи устройства
type MediaItem struct {
	Path       string    `json:"path"`                  // Путь относительно корня галереи, ключ идентичности
	Size       int64     `json:"size"`                  // Размер файла в байтах
	MimeType   string    `json:"mime_type,omitempty"`   // MIME-тип по расширению
	ModifiedAt time.Time `json:"modified_at,omitempty"` // Время последнего изменения файла
}

func (m MediaItem) Key() string {
	return m.Path
}

var supportedImages = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".bmp":  "image/bmp",
}

// IsSupportedImage проверяет, отображается ли файл в галерее
func IsSupportedImage(name string) bool {
	_, ok := supportedImages[strings.ToLower(path.Ext(name))]
	return ok
}

// ImageMimeType возвращает MIME-тип изображения или пустую строку
func ImageMimeType(name string) string {
	return supportedImages[strings.ToLower(path.Ext(name))]
}
