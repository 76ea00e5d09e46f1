package collection

import (
	"context"
	"errors"

	"mintyfresh/internal/domain/models"
)

var (
	ErrLoadFailure      = errors.New("collection load failed")
	ErrObserverReleased = errors.New("change observer already unregistered")
)

// Collection неизменяемый снимок упорядоченных элементов для одного scope.
// При ошибке загрузки Err оборачивает ErrLoadFailure, а Items содержит
// предыдущий снимок, чтобы вызывающий сам решил, показывать ли устаревшие данные.
type Collection[T models.Item] struct {
	Scope   string
	Items   []T
	Err     error
	Version uint64
}

func (c Collection[T]) Len() int {
	return len(c.Items)
}

func (c Collection[T]) Failed() bool {
	return c.Err != nil
}

// IndexOf возвращает позицию элемента с ключом key или -1
func (c Collection[T]) IndexOf(key string) int {
	for i, item := range c.Items {
		if item.Key() == key {
			return i
		}
	}

	return -1
}

// Loader читает источник данных для scope: медиахранилище или состояние минтов кошелька
type Loader[T models.Item] interface {
	Load(ctx context.Context, scope string) ([]T, error)
}

type LoaderFunc[T models.Item] func(ctx context.Context, scope string) ([]T, error)

func (f LoaderFunc[T]) Load(ctx context.Context, scope string) ([]T, error) {
	return f(ctx, scope)
}

// ChangeSource уведомляет об изменениях источника. Watch вызывает onChange на
// каждое изменение до вызова возвращенной функции stop.
type ChangeSource interface {
	Watch(onChange func()) (stop func() error, err error)
}

type ChangeSourceFunc func(onChange func()) (func() error, error)

func (f ChangeSourceFunc) Watch(onChange func()) (func() error, error) {
	return f(onChange)
}

// Dispatcher планировщик, на котором фиксируются снимки и вызываются подписчики
type Dispatcher interface {
	Post(task func()) bool
}
