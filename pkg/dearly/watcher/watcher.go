// Package watcher provides filesystem watching for a drop directory:
// archives landing in the watched directory are reported once they stop
// growing, so callers can validate them on arrival.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dearlyhq/dearly/pkg/dearly/logging"
)

// settleDelay is how long a file must stay unchanged before it is
// reported. Copies into the inbox arrive as a burst of write events.
const settleDelay = 500 * time.Millisecond

// logger is the package-level logger for watcher operations.
var logger = logging.Get("watcher")

// Watcher watches one directory for arriving archive files.
type Watcher struct {
	watcher   *fsnotify.Watcher
	extension string
	mu        sync.Mutex
	pending   map[string]*time.Timer
	closed    bool
}

// New creates a watcher reporting files with the given extension
// (e.g. ".dearly").
func New(extension string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:   fsw,
		extension: extension,
		pending:   make(map[string]*time.Timer),
	}, nil
}

// Watch starts watching a directory. Only the directory itself is
// watched; subdirectories are ignored.
func (w *Watcher) Watch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil // Only watch directories
	}
	return w.watcher.Add(absDir)
}

// Run starts the event loop. It blocks until the context is cancelled.
// The onArrive callback runs for each archive file once it has settled.
func (w *Watcher) Run(ctx context.Context, onArrive func(path string)) {
	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), w.extension) {
				continue
			}
			w.schedule(event.Name, onArrive)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// schedule (re)arms the settle timer for a path. Each write resets the
// timer, so the callback fires only after the file stops changing.
func (w *Watcher) schedule(path string, onArrive func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		onArrive(path)
	})
}

// cancelPending stops all armed settle timers.
func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cancelPending()
	return w.watcher.Close()
}
