package repository

import (
	"context"

	"mintyfresh/internal/domain/models"
)

type MintRepository interface {
	GetMintsByOwner(ctx context.Context, owner string) ([]models.MintItem, error)
	GetMintByID(ctx context.Context, id string) (models.MintItem, error)
	SaveMint(ctx context.Context, mint models.MintItem) error
}
