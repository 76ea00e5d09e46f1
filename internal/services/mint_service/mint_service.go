package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mintyfresh/internal/collection"
	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/lib/logger/sl"
	"mintyfresh/internal/storage"
	"mintyfresh/internal/transport/http/dto"
)

var ErrMintNotFound = errors.New("mint not found")

const invalidateTimeout = 5 * time.Second

//go:generate go run github.com/vektra/mockery/v2@v2.53.3 --all
type MintStore interface {
	GetMintByID(ctx context.Context, id string) (models.MintItem, error)
	SaveMint(ctx context.Context, mint models.MintItem) error
	Invalidate(ctx context.Context, owner string) error
}

type MintNotifier interface {
	Publish(ctx context.Context, owner string) error
	Source(owner string) collection.ChangeSource
}

// MintService контроллер экрана "Мои минты". Scope коллекции - адрес кошелька,
// без подключенного кошелька экран показывает пустую коллекцию.
type MintService struct {
	log      *slog.Logger
	provider *collection.Provider[models.MintItem]
	store    MintStore
	notifier MintNotifier
}

func NewMintService(
	log *slog.Logger,
	provider *collection.Provider[models.MintItem],
	store MintStore,
	notifier MintNotifier,
) *MintService {
	return &MintService{
		log:      log,
		provider: provider,
		store:    store,
		notifier: notifier,
	}
}

// Mints минты кошелька. Первое обращение к адресу загружает коллекцию.
func (s *MintService) Mints(ctx context.Context, address string) *dto.MintsResponse {
	c := s.provider.Current(address)
	if address != "" && c.Version == 0 {
		c = s.provider.Load(ctx, address)
	}

	return toResponse(address, c)
}

// Reload сбрасывает кэш кошелька и перечитывает минты
func (s *MintService) Reload(ctx context.Context, address string) *dto.MintsResponse {
	const op = "service.MintService.Reload"

	if address != "" {
		if err := s.store.Invalidate(ctx, address); err != nil {
			s.log.With(slog.String("op", op)).Warn("failed to invalidate mint cache", sl.Err(err))
		}
	}

	return toResponse(address, s.provider.Load(ctx, address))
}

// Watch поток минтов кошелька. На время потока регистрируется наблюдатель
// публикаций индексатора, он освобождается после отмены ctx.
func (s *MintService) Watch(ctx context.Context, address string) (<-chan *dto.MintsResponse, error) {
	const op = "service.MintService.Watch"

	log := s.log.With(
		slog.String("op", op),
		slog.String("address", address),
	)

	if address != "" {
		reg, err := s.provider.RegisterChangeObserver(address, invalidatingSource{
			log:     log,
			store:   s.store,
			address: address,
			inner:   s.notifier.Source(address),
		})
		if err != nil {
			log.Error("failed to register mint observer", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		go func() {
			<-ctx.Done()
			if err := reg.Unregister(); err != nil {
				log.Warn("failed to release mint observer", sl.Err(err))
			}
		}()

		if s.provider.Current(address).Version == 0 {
			s.provider.Load(ctx, address)
		}
	}

	in := s.provider.Watch(ctx, address)
	out := make(chan *dto.MintsResponse)

	go func() {
		defer close(out)

		for c := range in {
			select {
			case out <- toResponse(address, c):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// RecordMint сохраняет новый минт и оповещает наблюдателей кошелька
func (s *MintService) RecordMint(ctx context.Context, req dto.RecordMintRequest) (*dto.MintItemResponse, error) {
	const op = "service.MintService.RecordMint"

	log := s.log.With(
		slog.String("op", op),
		slog.String("mint", req.ID),
		slog.String("owner", req.Owner),
	)

	mint := models.MintItem{
		ID:          req.ID,
		Owner:       req.Owner,
		Name:        req.Name,
		Description: req.Description,
		MediaURL:    req.MediaURL,
		MintedAt:    req.MintedAt,
	}
	if mint.MintedAt.IsZero() {
		mint.MintedAt = time.Now().UTC()
	}

	if err := s.store.SaveMint(ctx, mint); err != nil {
		log.Error("failed to save mint", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.Publish(ctx, mint.Owner); err != nil {
		log.Warn("failed to publish mint change, reloading directly", sl.Err(err))
		s.provider.Load(ctx, mint.Owner)
	}

	log.Info("mint recorded")

	c := s.provider.Current(mint.Owner)
	resp := dto.FromMintItem(mint, max(c.IndexOf(mint.ID), 0))

	return &resp, nil
}

func (s *MintService) GetMint(ctx context.Context, id string) (*dto.MintItemResponse, error) {
	const op = "service.MintService.GetMint"

	mint, err := s.store.GetMintByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrMintNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrMintNotFound)
		}
		s.log.With(slog.String("op", op)).Error("failed to get mint", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	index := max(s.provider.Current(mint.Owner).IndexOf(mint.ID), 0)
	resp := dto.FromMintItem(mint, index)

	return &resp, nil
}

// invalidatingSource сбрасывает кэш кошелька перед неявной перезагрузкой
type invalidatingSource struct {
	log     *slog.Logger
	store   MintStore
	address string
	inner   collection.ChangeSource
}

func (s invalidatingSource) Watch(onChange func()) (func() error, error) {
	return s.inner.Watch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()

		if err := s.store.Invalidate(ctx, s.address); err != nil {
			s.log.Warn("failed to invalidate mint cache", sl.Err(err))
		}

		onChange()
	})
}

func toResponse(address string, c collection.Collection[models.MintItem]) *dto.MintsResponse {
	resp := &dto.MintsResponse{
		Address:         address,
		WalletConnected: address != "",
		Items:           make([]dto.MintItemResponse, 0, c.Len()),
		Version:         c.Version,
	}

	for i, item := range c.Items {
		resp.Items = append(resp.Items, dto.FromMintItem(item, i))
	}
	if c.Failed() {
		resp.Error = c.Err.Error()
	}

	return resp
}
