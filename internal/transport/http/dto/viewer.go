package dto

import "time"

const (
	ViewerKindGallery = "gallery"
	ViewerKindMint    = "mint"
)

type OpenViewerRequest struct {
	Kind    string `json:"kind" validate:"required,oneof=gallery mint"`
	Address string `json:"address"`
	Index   *int   `json:"index" validate:"required"`
}

type MoveViewerRequest struct {
	Index *int `json:"index" validate:"required"`
}

// ViewerResponse состояние пейджера деталей. Index и Item отсутствуют в состоянии empty.
type ViewerResponse struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Scope string `json:"scope,omitempty"`
	State string `json:"state"`
	Index *int   `json:"index,omitempty"`
	Count int    `json:"count"`
	Item  any    `json:"item,omitempty"`
}

type ShareResponse struct {
	MediaURL  string    `json:"media_url"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ConnectWalletRequest struct {
	Address string `json:"address" validate:"required,min=32,max=44,alphanum"`
}

type RecordMintRequest struct {
	ID          string    `json:"id" validate:"required"`
	Owner       string    `json:"owner" validate:"required"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MediaURL    string    `json:"media_url" validate:"required,url"`
	MintedAt    time.Time `json:"minted_at"`
}
