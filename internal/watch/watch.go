// Package watch reports edits to files in the data directory.
package watch

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher calls OnChange, debounced, whenever one of the named files in a
// directory is written, created or renamed into place.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	names     map[string]bool
	onChange  func(name string)
	debounce  time.Duration
	logger    *log.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	timerMu sync.Mutex
	timers  map[string]*time.Timer
}

// New watches dir for changes to any of names. The directory is watched
// rather than the files so that editors replacing a file are still seen.
func New(dir string, names []string, onChange func(name string), logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		dir:       dir,
		names:     make(map[string]bool, len(names)),
		onChange:  onChange,
		debounce:  DefaultDebounce,
		logger:    logger,
		done:      make(chan struct{}),
		timers:    make(map[string]*time.Timer),
	}
	for _, n := range names {
		w.names[n] = true
	}

	w.wg.Add(1)
	go w.loop()
	logger.Printf("[WATCH] watching %s", dir)
	return w, nil
}

// Close stops the watcher and cancels pending callbacks.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()

		w.timerMu.Lock()
		for _, t := range w.timers {
			t.Stop()
		}
		w.timerMu.Unlock()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("[WATCH] error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	name := filepath.Base(ev.Name)
	if !w.names[name] {
		return
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.logger.Printf("[WATCH] %s changed", name)
		if w.onChange != nil {
			w.onChange(name)
		}
	})
}
