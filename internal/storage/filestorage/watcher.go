package storage

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/lib/logger/sl"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// DirWatcher источник изменений галереи. Серия событий файловой системы
// схлопывается в одно уведомление через delay.
type DirWatcher struct {
	log   *slog.Logger
	dir   string
	delay time.Duration
}

func NewDirWatcher(log *slog.Logger, dir string, delay time.Duration) *DirWatcher {
	return &DirWatcher{
		log:   log,
		dir:   dir,
		delay: delay,
	}
}

func (w *DirWatcher) Watch(onChange func()) (func() error, error) {
	const op = "filestorage.DirWatcher.Watch"

	log := w.log.With(
		slog.String("op", op),
		slog.String("dir", w.dir),
	)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := w.addTree(fw, w.dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	debounced := debounce.New(w.delay)
	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}

				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := w.addTree(fw, ev.Name); err != nil {
							log.Warn("failed to watch new directory", sl.Err(err))
						}
						debounced(onChange)
						continue
					}
				}

				if relevant(ev) {
					debounced(onChange)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error", sl.Err(err))
			}
		}
	}()

	stop := func() error {
		err := fw.Close()
		<-done
		// сбрасываем отложенное уведомление
		debounced(func() {})
		return err
	}

	return stop, nil
}

func relevant(ev fsnotify.Event) bool {
	if models.IsSupportedImage(ev.Name) {
		return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
	}

	// удаленный каталог мог содержать снимки
	if filepath.Ext(ev.Name) == "" {
		return ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
	}

	return false
}

func (w *DirWatcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		return fw.Add(p)
	})
}
