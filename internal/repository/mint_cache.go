package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/lib/logger/sl"
	redisapp "mintyfresh/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

// MintCache кэш списка минтов кошелька в Redis
type MintCache struct {
	Client *redisapp.Client
	TTL    time.Duration
}

func NewMintCache(client *redisapp.Client, ttl time.Duration) *MintCache {
	return &MintCache{Client: client, TTL: ttl}
}

func (c *MintCache) Get(ctx context.Context, owner string) ([]models.MintItem, bool, error) {
	val, err := c.Client.Get(ctx, mintListKey(owner)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var mints []models.MintItem
	if err := json.Unmarshal([]byte(val), &mints); err != nil {
		return nil, false, fmt.Errorf("decode cached mints: %w", err)
	}

	return mints, true, nil
}

func (c *MintCache) Set(ctx context.Context, owner string, mints []models.MintItem) error {
	data, err := json.Marshal(mints)
	if err != nil {
		return err
	}

	return c.Client.Set(ctx, mintListKey(owner), string(data), c.TTL).Err()
}

func (c *MintCache) Invalidate(ctx context.Context, owner string) error {
	return c.Client.Del(ctx, mintListKey(owner)).Err()
}

func mintListKey(owner string) string {
	return "mints:owner:" + owner
}

// CachedMintRepo читает список минтов через кэш. Ошибки кэша не фатальны:
// запрос уходит в базу.
type CachedMintRepo struct {
	log   *slog.Logger
	repo  MintRepository
	cache *MintCache
}

func NewCachedMintRepo(log *slog.Logger, repo MintRepository, cache *MintCache) *CachedMintRepo {
	return &CachedMintRepo{
		log:   log,
		repo:  repo,
		cache: cache,
	}
}

func (r *CachedMintRepo) GetMintsByOwner(ctx context.Context, owner string) ([]models.MintItem, error) {
	const op = "repository.CachedMintRepo.GetMintsByOwner"

	log := r.log.With(
		slog.String("op", op),
		slog.String("owner", owner),
	)

	mints, ok, err := r.cache.Get(ctx, owner)
	if err != nil {
		log.Warn("mint cache read failed", sl.Err(err))
	}
	if ok {
		return mints, nil
	}

	mints, err = r.repo.GetMintsByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, owner, mints); err != nil {
		log.Warn("mint cache write failed", sl.Err(err))
	}

	return mints, nil
}

func (r *CachedMintRepo) GetMintByID(ctx context.Context, id string) (models.MintItem, error) {
	return r.repo.GetMintByID(ctx, id)
}

// SaveMint пишет минт в базу и сбрасывает кэш владельца. Ошибка сброса кэша
// не отменяет сохранение: запись уже в базе.
func (r *CachedMintRepo) SaveMint(ctx context.Context, mint models.MintItem) error {
	const op = "repository.CachedMintRepo.SaveMint"

	if err := r.repo.SaveMint(ctx, mint); err != nil {
		return err
	}

	if err := r.Invalidate(ctx, mint.Owner); err != nil {
		r.log.With(
			slog.String("op", op),
			slog.String("owner", mint.Owner),
		).Warn("mint cache invalidation failed", sl.Err(err))
	}

	return nil
}

func (r *CachedMintRepo) Invalidate(ctx context.Context, owner string) error {
	return r.cache.Invalidate(ctx, owner)
}

// Load реализует загрузчик коллекции минтов, scope - адрес кошелька
func (r *CachedMintRepo) Load(ctx context.Context, owner string) ([]models.MintItem, error) {
	return r.GetMintsByOwner(ctx, owner)
}
