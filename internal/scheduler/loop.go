package scheduler

import (
	"sync"
)

// Loop выполняет задачи по одной в порядке поступления на собственной горутине.
// Все изменения общего состояния провайдеров коллекций проходят через него.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func NewLoop(buffer int) *Loop {
	l := &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}

	go l.run()

	return l
}

func (l *Loop) run() {
	defer close(l.done)

	for task := range l.tasks {
		task()
	}
}

// Post ставит задачу в очередь. Возвращает false, если цикл уже остановлен.
// Принятая задача выполняется всегда, даже если Stop вызван сразу после.
func (l *Loop) Post(task func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.inflight.Add(1)
	l.mu.Unlock()

	defer l.inflight.Done()

	l.tasks <- task

	return true
}

// Stop перестает принимать задачи, выполняет уже принятые и ждет завершения цикла.
// Нельзя вызывать из задачи самого цикла.
func (l *Loop) Stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		l.inflight.Wait()
		close(l.tasks)
	})
	<-l.done
}
