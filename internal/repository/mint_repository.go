package repository

import (
	"context"
	"errors"
	"fmt"

	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// MintRepo читает модель минтов, которую ведет индексатор цепочки
type MintRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewMintRepo(db *pgxpool.Pool) *MintRepo {
	return &MintRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var mintColumns = []string{
	"id",
	"owner",
	"COALESCE(name, '')",
	"COALESCE(description, '')",
	"media_url",
	"minted_at",
}

// GetMintsByOwner возвращает минты кошелька, новые первыми
func (r *MintRepo) GetMintsByOwner(ctx context.Context, owner string) ([]models.MintItem, error) {
	const op = "repository.MintRepo.GetMintsByOwner"

	query, args, err := r.sb.Select(mintColumns...).
		From("mints").
		Where(sq.Eq{"owner": owner}).
		OrderBy("minted_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var mints []models.MintItem
	for rows.Next() {
		var mint models.MintItem
		if err := rows.Scan(
			&mint.ID,
			&mint.Owner,
			&mint.Name,
			&mint.Description,
			&mint.MediaURL,
			&mint.MintedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		mints = append(mints, mint)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return mints, nil
}

func (r *MintRepo) GetMintByID(ctx context.Context, id string) (models.MintItem, error) {
	const op = "repository.MintRepo.GetMintByID"

	query, args, err := r.sb.Select(mintColumns...).
		From("mints").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.MintItem{}, fmt.Errorf("%s: %w", op, err)
	}

	var mint models.MintItem
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&mint.ID,
		&mint.Owner,
		&mint.Name,
		&mint.Description,
		&mint.MediaURL,
		&mint.MintedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MintItem{}, fmt.Errorf("%s: %w", op, storage.ErrMintNotFound)
		}
		return models.MintItem{}, fmt.Errorf("%s: %w", op, err)
	}

	return mint, nil
}

// SaveMint записывает подтвержденный минт. Повторная запись обновляет метаданные.
func (r *MintRepo) SaveMint(ctx context.Context, mint models.MintItem) error {
	const op = "repository.MintRepo.SaveMint"

	query, args, err := r.sb.Insert("mints").
		Columns("id", "owner", "name", "description", "media_url", "minted_at").
		Values(mint.ID, mint.Owner, mint.Name, mint.Description, mint.MediaURL, mint.MintedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET owner = EXCLUDED.owner, name = EXCLUDED.name, " +
			"description = EXCLUDED.description, media_url = EXCLUDED.media_url").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
