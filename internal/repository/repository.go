package repository

import (
	"context"
	"fmt"

	"mintyfresh/internal/storage/postgresql"
)

type Repository struct {
	db    *postgresql.Storage
	Mints *MintRepo
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := postgresql.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{
		db:    db,
		Mints: NewMintRepo(db.Pool()),
	}, nil
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func (r *Repository) Close() {
	r.db.Close()
}
