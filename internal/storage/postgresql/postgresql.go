package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// schema read-модель индексатора минтов
const schema = `
	CREATE TABLE IF NOT EXISTS mints (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT,
		description TEXT,
		media_url TEXT NOT NULL,
		minted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS mints_owner_minted_at_idx ON mints (owner, minted_at DESC);
`

type Storage struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, storagePath string) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := pgxpool.Connect(ctx, storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.db
}

func (s *Storage) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.db)
}

// Migrate создает таблицы, если их еще нет
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	const op = "storage.postgresql.Migrate"

	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Storage) Close() {
	s.db.Close()
}
