package dto

import (
	"time"

	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/navigation"
	"mintyfresh/internal/permission"
)

const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// MediaItemResponse фотография галереи для экрана выбора
type MediaItemResponse struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	MimeType    string    `json:"mime_type,omitempty"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
	DetailRoute string    `json:"detail_route"`
}

type MintItemResponse struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MediaURL    string    `json:"media_url"`
	MintedAt    time.Time `json:"minted_at"`
	DetailRoute string    `json:"detail_route"`
}

// GalleryResponse состояние экрана галереи. При отказе в доступе Items пуст,
// а Explain содержит тексты для экрана запроса разрешения.
type GalleryResponse struct {
	Permission string              `json:"permission"`
	Explain    *permission.Explain `json:"explain,omitempty"`
	Items      []MediaItemResponse `json:"items"`
	Version    uint64              `json:"version"`
	Error      string              `json:"error,omitempty"`
}

type MintsResponse struct {
	Address         string             `json:"address,omitempty"`
	WalletConnected bool               `json:"wallet_connected"`
	Items           []MintItemResponse `json:"items"`
	Version         uint64             `json:"version"`
	Error           string             `json:"error,omitempty"`
}

func FromMediaItem(item models.MediaItem, url string) MediaItemResponse {
	return MediaItemResponse{
		Path:        item.Path,
		URL:         url,
		MimeType:    item.MimeType,
		Size:        item.Size,
		ModifiedAt:  item.ModifiedAt,
		DetailRoute: navigation.GalleryDetailsRoute(item.Path),
	}
}

func FromMintItem(item models.MintItem, index int) MintItemResponse {
	return MintItemResponse{
		ID:          item.ID,
		Owner:       item.Owner,
		Name:        item.Name,
		Description: item.Description,
		MediaURL:    item.MediaURL,
		MintedAt:    item.MintedAt,
		DetailRoute: navigation.MintDetailsRoute(index, item.ID),
	}
}
