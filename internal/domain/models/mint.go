package models

import "time"

// MintItem снимок заминченного NFT для кошелька
type MintItem struct {
	ID          string    `json:"id" db:"id"`                   // Адрес минта, ключ идентичности
	Owner       string    `json:"owner" db:"owner"`             // Адрес кошелька владельца
	Name        string    `json:"name,omitempty" db:"name"`     // Название (может отсутствовать)
	Description string    `json:"description,omitempty" db:"description"`
	MediaURL    string    `json:"media_url" db:"media_url"`
	MintedAt    time.Time `json:"minted_at" db:"minted_at"`
}

func (m MintItem) Key() string {
	return m.ID
}

func (m MintItem) ShareFields() (string, string) {
	return m.MediaURL, m.Name
}
