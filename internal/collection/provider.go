package collection

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/lib/logger/sl"
	"mintyfresh/internal/metrics"

	"github.com/patrickmn/go-cache"
)

const defaultReloadTimeout = 30 * time.Second

type Options struct {
	Name string
	// RequireScope: пустой scope означает отсутствие подключенного кошелька,
	// Load и Current возвращают пустую коллекцию без обращения к источнику.
	RequireScope bool
	Dispatcher   Dispatcher
	// SnapshotTTL время жизни снимка неактивного scope, 0 - без истечения
	SnapshotTTL   time.Duration
	ReloadTimeout time.Duration
}

type Subscription struct {
	scope string
	id    uint64
}

// Provider хранит текущую коллекцию для каждого scope и поддерживает ее актуальной.
// Снимки заменяются целиком на Dispatcher, поэтому читатели всегда видят
// согласованное значение.
type Provider[T models.Item] struct {
	log           *slog.Logger
	name          string
	requireScope  bool
	reloadTimeout time.Duration
	loader        Loader[T]
	dispatcher    Dispatcher
	snapshots     *cache.Cache

	mu        sync.Mutex
	issued    map[string]uint64
	committed map[string]uint64
	subs      map[string]map[uint64]func(Collection[T])
	nextSub   uint64
	observers map[*Registration]struct{}
}

func New[T models.Item](log *slog.Logger, loader Loader[T], opts Options) *Provider[T] {
	if opts.Dispatcher == nil {
		panic("collection: dispatcher is required")
	}

	ttl := opts.SnapshotTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	reloadTimeout := opts.ReloadTimeout
	if reloadTimeout <= 0 {
		reloadTimeout = defaultReloadTimeout
	}

	return &Provider[T]{
		log:           log,
		name:          opts.Name,
		requireScope:  opts.RequireScope,
		reloadTimeout: reloadTimeout,
		loader:        loader,
		dispatcher:    opts.Dispatcher,
		snapshots:     cache.New(ttl, 10*time.Minute),
		issued:        make(map[string]uint64),
		committed:     make(map[string]uint64),
		subs:          make(map[string]map[uint64]func(Collection[T])),
		observers:     make(map[*Registration]struct{}),
	}
}

// Load перечитывает источник для scope и публикует результат подписчикам.
// Результат более раннего вызова, завершившегося позже, отбрасывается.
// Нельзя вызывать из колбэка подписчика: Load ждет фиксации на Dispatcher.
func (p *Provider[T]) Load(ctx context.Context, scope string) Collection[T] {
	const op = "collection.Provider.Load"

	log := p.log.With(
		slog.String("op", op),
		slog.String("provider", p.name),
		slog.String("scope", scope),
	)

	if p.requireScope && scope == "" {
		log.Debug("no scope, returning empty collection")
		return Collection[T]{}
	}

	seq := p.issue(scope)

	start := time.Now()
	items, err := p.loader.Load(ctx, scope)
	metrics.CollectionLoadDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

	snapshot := Collection[T]{
		Scope:   scope,
		Items:   slices.Clone(items),
		Version: seq,
	}

	if err != nil {
		log.Warn("load failed", sl.Err(err))
		metrics.CollectionLoadsTotal.WithLabelValues(p.name, "error").Inc()

		snapshot.Items = p.Current(scope).Items
		snapshot.Err = fmt.Errorf("%w: %w", ErrLoadFailure, err)
	} else {
		metrics.CollectionLoadsTotal.WithLabelValues(p.name, "ok").Inc()
	}

	done := make(chan Collection[T], 1)
	if !p.dispatcher.Post(func() { done <- p.commit(snapshot) }) {
		log.Warn("dispatcher stopped, result discarded")
		return p.Current(scope)
	}

	select {
	case current := <-done:
		log.Debug("collection loaded", slog.Int("items", current.Len()), slog.Uint64("version", current.Version))
		return current
	case <-ctx.Done():
		return p.Current(scope)
	}
}

// Current возвращает последний зафиксированный снимок или пустую коллекцию
func (p *Provider[T]) Current(scope string) Collection[T] {
	if p.requireScope && scope == "" {
		return Collection[T]{}
	}

	if v, ok := p.snapshots.Get(scope); ok {
		return v.(Collection[T])
	}

	return Collection[T]{Scope: scope}
}

// Subscribe регистрирует колбэк для scope. Текущее значение доставляется первым,
// затем каждый новый снимок. Колбэки выполняются на Dispatcher.
func (p *Provider[T]) Subscribe(scope string, fn func(Collection[T])) Subscription {
	p.mu.Lock()
	p.nextSub++
	id := p.nextSub
	if p.subs[scope] == nil {
		p.subs[scope] = make(map[uint64]func(Collection[T]))
	}
	p.subs[scope][id] = fn
	p.mu.Unlock()

	p.dispatcher.Post(func() {
		p.deliver(scope, []uint64{id}, p.Current(scope))
	})

	return Subscription{scope: scope, id: id}
}

// Unsubscribe отменяет доставку. После возврата колбэк больше не вызывается,
// если только он не выполняется прямо сейчас на Dispatcher.
func (p *Provider[T]) Unsubscribe(sub Subscription) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	scoped, ok := p.subs[sub.scope]
	if !ok {
		return false
	}
	if _, ok := scoped[sub.id]; !ok {
		return false
	}

	delete(scoped, sub.id)
	if len(scoped) == 0 {
		delete(p.subs, sub.scope)
	}

	return true
}

// Watch возвращает бесконечный поток снимков scope: текущий и затем каждый новый.
// Медленный читатель получает только последний снимок. Канал закрывается после отмены ctx.
func (p *Provider[T]) Watch(ctx context.Context, scope string) <-chan Collection[T] {
	out := make(chan Collection[T])
	signal := make(chan struct{}, 1)

	var (
		mu      sync.Mutex
		pending *Collection[T]
	)

	sub := p.Subscribe(scope, func(c Collection[T]) {
		mu.Lock()
		pending = &c
		mu.Unlock()

		select {
		case signal <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(out)
		defer p.Unsubscribe(sub)

		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
			}

			mu.Lock()
			next := pending
			pending = nil
			mu.Unlock()

			if next == nil {
				continue
			}

			select {
			case out <- *next:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Registration захваченный наблюдатель изменений источника
type Registration struct {
	released atomic.Bool
	stop     func() error
	release  func()
}

// Unregister освобождает наблюдатель. Допустим ровно один вызов,
// повторный возвращает ErrObserverReleased.
func (r *Registration) Unregister() error {
	if !r.released.CompareAndSwap(false, true) {
		return ErrObserverReleased
	}

	r.release()

	return r.stop()
}

// RegisterChangeObserver подписывается на изменения источника: каждое изменение
// вызывает неявный Load для scope, пока регистрация не освобождена.
func (p *Provider[T]) RegisterChangeObserver(scope string, src ChangeSource) (*Registration, error) {
	const op = "collection.Provider.RegisterChangeObserver"

	log := p.log.With(
		slog.String("op", op),
		slog.String("provider", p.name),
		slog.String("scope", scope),
	)

	reg := &Registration{}

	stop, err := src.Watch(func() {
		if reg.released.Load() {
			return
		}

		log.Debug("backing store changed, reloading")

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), p.reloadTimeout)
			defer cancel()

			p.Load(ctx, scope)
		}()
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg.stop = stop
	reg.release = func() {
		p.mu.Lock()
		delete(p.observers, reg)
		p.mu.Unlock()

		metrics.ChangeObservers.WithLabelValues(p.name).Dec()
		log.Debug("change observer unregistered")
	}

	p.mu.Lock()
	p.observers[reg] = struct{}{}
	p.mu.Unlock()

	metrics.ChangeObservers.WithLabelValues(p.name).Inc()
	log.Debug("change observer registered")

	return reg, nil
}

// Observers количество неосвобожденных наблюдателей
func (p *Provider[T]) Observers() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.observers)
}

func (p *Provider[T]) issue(scope string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.issued[scope]++

	return p.issued[scope]
}

// commit выполняется на Dispatcher
func (p *Provider[T]) commit(next Collection[T]) Collection[T] {
	p.mu.Lock()
	if next.Version <= p.committed[next.Scope] {
		p.mu.Unlock()

		metrics.CollectionStaleDiscarded.WithLabelValues(p.name).Inc()
		p.log.Debug("stale load discarded",
			slog.String("provider", p.name),
			slog.String("scope", next.Scope),
			slog.Uint64("version", next.Version),
		)

		return p.Current(next.Scope)
	}

	p.committed[next.Scope] = next.Version
	p.snapshots.Set(next.Scope, next, cache.DefaultExpiration)

	ids := make([]uint64, 0, len(p.subs[next.Scope]))
	for id := range p.subs[next.Scope] {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	p.deliver(next.Scope, ids, next)

	return next
}

func (p *Provider[T]) deliver(scope string, ids []uint64, c Collection[T]) {
	for _, id := range ids {
		p.mu.Lock()
		fn, ok := p.subs[scope][id]
		p.mu.Unlock()

		if ok {
			fn(c)
		}
	}
}
