package pager

import (
	"errors"
	"sync"

	"mintyfresh/internal/domain/models"
)

var (
	ErrInvalidIndex = errors.New("index out of range")
	ErrEmpty        = errors.New("pager has no items")
	ErrNotShareable = errors.New("item can not be shared")
)

type State int

const (
	StateEmpty State = iota
	StatePositioned
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePositioned:
		return "positioned"
	default:
		return "unknown"
	}
}

// Sharer внешний получатель share-интента
type Sharer interface {
	Share(mediaURL, name string) error
}

type SharerFunc func(mediaURL, name string) error

func (f SharerFunc) Share(mediaURL, name string) error {
	return f(mediaURL, name)
}

// Pager курсор по зафиксированному снимку коллекции
type Pager[T models.Item] struct {
	mu    sync.RWMutex
	items []T
	index int
}

// New создает пейджер на позиции start. Для пустой коллекции пейджер создается
// в состоянии Empty при любом start.
func New[T models.Item](items []T, start int) (*Pager[T], error) {
	if len(items) > 0 && (start < 0 || start >= len(items)) {
		return nil, ErrInvalidIndex
	}

	p := &Pager[T]{
		items: items,
		index: start,
	}
	if len(items) == 0 {
		p.index = -1
	}

	return p, nil
}

func (p *Pager[T]) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.items) == 0 {
		return StateEmpty
	}

	return StatePositioned
}

// Index текущая позиция, false в состоянии Empty
func (p *Pager[T]) Index() (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.items) == 0 {
		return 0, false
	}

	return p.index, true
}

func (p *Pager[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.items)
}

func (p *Pager[T]) Current() (T, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.items) == 0 {
		var zero T
		return zero, ErrEmpty
	}

	return p.items[p.index], nil
}

// MoveTo перемещает курсор. Индекс вне диапазона отклоняется, а не обрезается.
func (p *Pager[T]) MoveTo(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) == 0 {
		return ErrEmpty
	}
	if index < 0 || index >= len(p.items) {
		return ErrInvalidIndex
	}

	p.index = index

	return nil
}

// ShareCurrent отправляет (mediaURL, name) текущего элемента. Состояние не меняется.
func (p *Pager[T]) ShareCurrent(s Sharer) error {
	item, err := p.Current()
	if err != nil {
		return err
	}

	shareable, ok := any(item).(models.Shareable)
	if !ok {
		return ErrNotShareable
	}

	mediaURL, name := shareable.ShareFields()

	return s.Share(mediaURL, name)
}

// Rebind применяет перезагруженную коллекцию. Курсор остается на том же элементе,
// если он есть в новом снимке, иначе прежний индекс ограничивается новым размером.
// Пустой снимок переводит пейджер в Empty; из Empty выйти можно только созданием нового пейджера.
func (p *Pager[T]) Rebind(items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) == 0 {
		return
	}

	if len(items) == 0 {
		p.items = nil
		p.index = -1
		return
	}

	next := -1
	key := p.items[p.index].Key()
	for i, item := range items {
		if item.Key() == key {
			next = i
			break
		}
	}

	if next < 0 {
		next = Clamp(p.index, len(items))
	}

	p.items = items
	p.index = next
}

// Clamp ограничивает index диапазоном [0, n). Для n == 0 возвращает 0.
func Clamp(index, n int) int {
	if n <= 0 || index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}

	return index
}
