package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mintyfresh/internal/collection"
	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/lib/logger/sl"
	"mintyfresh/internal/metrics"
	"mintyfresh/internal/pager"
	"mintyfresh/internal/permission"
	"mintyfresh/internal/transport/http/dto"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrViewerNotFound = errors.New("viewer not found")
	ErrUnknownKind    = errors.New("unknown viewer kind")
)

type ShareIssuer interface {
	Issue(mediaURL, name string) (*dto.ShareResponse, error)
}

type MediaLocator interface {
	MediaURL(relativePath string) string
}

// viewer сессия экрана деталей поверх пейджера
type viewer interface {
	response(id string) *dto.ViewerResponse
	move(index int) error
	share(s pager.Sharer) error
	close()
}

type session[T models.Item] struct {
	kind     string
	scope    string
	pager    *pager.Pager[T]
	provider *collection.Provider[T]
	sub      collection.Subscription
	render   func(item T, index int) any
}

// open создает пейджер по текущему снимку scope и подписывает его на перезагрузки
func open[T models.Item](
	ctx context.Context,
	provider *collection.Provider[T],
	kind, scope string,
	index int,
	render func(T, int) any,
) (*session[T], error) {
	c := provider.Current(scope)
	if c.Version == 0 {
		c = provider.Load(ctx, scope)
	}

	p, err := pager.New(c.Items, index)
	if err != nil {
		return nil, err
	}

	s := &session[T]{
		kind:     kind,
		scope:    scope,
		pager:    p,
		provider: provider,
		render:   render,
	}
	s.sub = provider.Subscribe(scope, func(next collection.Collection[T]) {
		p.Rebind(next.Items)
	})

	return s, nil
}

func (s *session[T]) response(id string) *dto.ViewerResponse {
	resp := &dto.ViewerResponse{
		ID:    id,
		Kind:  s.kind,
		Scope: s.scope,
		State: s.pager.State().String(),
		Count: s.pager.Len(),
	}

	index, ok := s.pager.Index()
	if !ok {
		return resp
	}
	item, err := s.pager.Current()
	if err != nil {
		return resp
	}

	resp.Index = &index
	resp.Item = s.render(item, index)

	return resp
}

func (s *session[T]) move(index int) error {
	return s.pager.MoveTo(index)
}

func (s *session[T]) share(sharer pager.Sharer) error {
	return s.pager.ShareCurrent(sharer)
}

func (s *session[T]) close() {
	s.provider.Unsubscribe(s.sub)
}

// ViewerService открытые экраны деталей. Сессия, к которой не обращались
// дольше idleTTL, закрывается и отписывается от провайдера.
type ViewerService struct {
	log     *slog.Logger
	gallery *collection.Provider[models.MediaItem]
	mints   *collection.Provider[models.MintItem]
	media   MediaLocator
	checker permission.Checker
	sharer  ShareIssuer
	idleTTL time.Duration
	viewers *cache.Cache

	// mu упорядочивает продление сессии и ее закрытие по истечении
	mu sync.Mutex
}

func NewViewerService(
	log *slog.Logger,
	gallery *collection.Provider[models.MediaItem],
	mints *collection.Provider[models.MintItem],
	media MediaLocator,
	checker permission.Checker,
	sharer ShareIssuer,
	idleTTL time.Duration,
) *ViewerService {
	s := &ViewerService{
		log:     log,
		gallery: gallery,
		mints:   mints,
		media:   media,
		checker: checker,
		sharer:  sharer,
		idleTTL: idleTTL,
		viewers: cache.New(idleTTL, idleTTL/2+time.Second),
	}
	s.viewers.OnEvicted(s.evicted)

	return s
}

// evicted закрывает сессию, удаленную из кэша. Сессия, которую touch уже
// вернул в кэш, остается открытой.
func (s *ViewerService) evicted(id string, v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.viewers.Get(id); ok && cur == v {
		return
	}

	v.(viewer).close()
	metrics.ActiveViewers.Dec()
	s.log.Debug("viewer closed", slog.String("viewer_id", id))
}

// Open открывает пейджер нужного вида на позиции req.Index
func (s *ViewerService) Open(ctx context.Context, req dto.OpenViewerRequest, scope string) (*dto.ViewerResponse, error) {
	index := 0
	if req.Index != nil {
		index = *req.Index
	}

	switch req.Kind {
	case dto.ViewerKindMint:
		return s.OpenMintViewer(ctx, scope, index)
	case dto.ViewerKindGallery:
		return s.OpenGalleryViewer(ctx, index)
	default:
		return nil, fmt.Errorf("service.ViewerService.Open: %w", ErrUnknownKind)
	}
}

func (s *ViewerService) OpenMintViewer(ctx context.Context, address string, index int) (*dto.ViewerResponse, error) {
	const op = "service.ViewerService.OpenMintViewer"

	sess, err := open(ctx, s.mints, dto.ViewerKindMint, address, index, func(item models.MintItem, i int) any {
		return dto.FromMintItem(item, i)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.register(op, sess), nil
}

// OpenGalleryViewer без разрешения на чтение медиа галерея не читается
func (s *ViewerService) OpenGalleryViewer(ctx context.Context, index int) (*dto.ViewerResponse, error) {
	const op = "service.ViewerService.OpenGalleryViewer"

	if err := s.checker.Check(ctx); err != nil {
		s.log.With(slog.String("op", op)).Info("gallery viewer denied", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess, err := open(ctx, s.gallery, dto.ViewerKindGallery, models.GalleryScope, index, func(item models.MediaItem, _ int) any {
		return dto.FromMediaItem(item, s.media.MediaURL(item.Path))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.register(op, sess), nil
}

func (s *ViewerService) Viewer(id string) (*dto.ViewerResponse, error) {
	const op = "service.ViewerService.Viewer"

	v, err := s.touch(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return v.response(id), nil
}

func (s *ViewerService) Move(id string, index int) (*dto.ViewerResponse, error) {
	const op = "service.ViewerService.Move"

	v, err := s.touch(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := v.move(index); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return v.response(id), nil
}

// Share передает текущий элемент получателю share-интента
func (s *ViewerService) Share(id string) (*dto.ShareResponse, error) {
	const op = "service.ViewerService.Share"

	log := s.log.With(
		slog.String("op", op),
		slog.String("viewer_id", id),
	)

	v, err := s.touch(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var shared *dto.ShareResponse
	err = v.share(pager.SharerFunc(func(mediaURL, name string) error {
		resp, err := s.sharer.Issue(mediaURL, name)
		if err != nil {
			return err
		}
		shared = resp
		return nil
	}))
	if err != nil {
		log.Info("share rejected", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("item shared")

	return shared, nil
}

func (s *ViewerService) Close(id string) error {
	const op = "service.ViewerService.Close"

	if _, ok := s.viewers.Get(id); !ok {
		return fmt.Errorf("%s: %w", op, ErrViewerNotFound)
	}

	s.viewers.Delete(id)

	return nil
}

// CloseAll закрывает все открытые сессии при остановке приложения
func (s *ViewerService) CloseAll() {
	for id := range s.viewers.Items() {
		s.viewers.Delete(id)
	}
}

func (s *ViewerService) Count() int {
	return s.viewers.ItemCount()
}

func (s *ViewerService) register(op string, v viewer) *dto.ViewerResponse {
	id := uuid.NewString()

	s.viewers.Set(id, v, cache.DefaultExpiration)
	metrics.ActiveViewers.Inc()

	resp := v.response(id)
	s.log.Info("viewer opened",
		slog.String("op", op),
		slog.String("viewer_id", id),
		slog.String("scope", resp.Scope),
		slog.String("state", resp.State),
	)

	return resp
}

// touch продлевает жизнь сессии при каждом обращении
func (s *ViewerService) touch(id string) (viewer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.viewers.Get(id)
	if !ok {
		return nil, ErrViewerNotFound
	}

	s.viewers.Set(id, v, cache.DefaultExpiration)

	return v.(viewer), nil
}
