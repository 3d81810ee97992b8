// Package watch reports changes to source files so they can be re-imported.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long a burst of events must be quiet before the
// changed files are reported.
const DefaultDelay = 100 * time.Millisecond

// SourceWatcher watches directory trees and reports batches of changed
// files accepted by its filter.
type SourceWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	roots     []string
	accept    func(path string) bool
	logger    *zap.Logger
	changes   chan []string
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewSourceWatcher creates a watcher for roots. accept decides which changed
// files are reported; hidden files and directories are never reported.
func NewSourceWatcher(roots []string, accept func(path string) bool, logger *zap.Logger, delay time.Duration) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	w := &SourceWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(delay),
		roots:     roots,
		accept:    accept,
		logger:    logger,
		changes:   make(chan []string, 1),
		stopChan:  make(chan struct{}),
	}
	w.debouncer.SetCallback(w.emit)

	return w, nil
}

// Changes delivers batches of changed paths, sorted and without duplicates.
func (w *SourceWatcher) Changes() <-chan []string {
	return w.changes
}

// Start adds every directory under the roots and begins watching.
func (w *SourceWatcher) Start() error {
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}

	w.wg.Add(1)
	go w.loop()

	return nil
}

// Stop stops watching. It is safe to call more than once.
func (w *SourceWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.debouncer.Stop()
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *SourceWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		w.logger.Debug("watching directory", zap.String("dir", path))
		return nil
	})
}

func (w *SourceWatcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-w.stopChan:
			return
		}
	}
}

func (w *SourceWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if isHidden(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}

	if w.accept == nil || w.accept(event.Name) {
		w.logger.Debug("source changed", zap.String("path", event.Name))
		w.debouncer.Add(event.Name)
	}
}

func (w *SourceWatcher) emit(files []string) {
	sort.Strings(files)
	select {
	case w.changes <- files:
	case <-w.stopChan:
	}
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
