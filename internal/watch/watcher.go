// Package watch implements the file-watcher collaborator spec.md §1 names as
// an out-of-scope external interface: it notices on-disk changes and calls
// the core pipeline, but is never part of the five-layer core itself. This
// adapts Guru2308-rag-code's internal/indexing/watcher.go Watcher (recursive
// fsnotify.Add over a directory tree, since fsnotify itself doesn't watch
// recursively, plus per-path debounce timers that collapse a burst of
// write events into one handler call) into this module's own idiom: the
// standard log package instead of a structured logger, and fmt.Errorf
// wrapping instead of that repo's custom errors package.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event classifies a debounced filesystem change.
type Event string

const (
	EventCreate Event = "create"
	EventModify Event = "modify"
	EventDelete Event = "delete"
)

// ChangeHandler is invoked once per debounce window for a changed path.
type ChangeHandler func(ctx context.Context, path string, event Event) error

// Watcher recursively watches one or more directory trees and debounces
// bursts of events per path before calling its handler.
type Watcher struct {
	fsw     *fsnotify.Watcher
	handler ChangeHandler
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New builds a Watcher. debounce <= 0 defaults to 500ms, matching the
// smallest interval that reliably collapses an editor's save-related write
// burst into a single event.
func New(handler ChangeHandler, debounce time.Duration) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch: handler must not be nil")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{fsw: fsw, handler: handler, debounce: debounce, pending: make(map[string]*time.Timer)}, nil
}

// AddPath recursively registers root and every subdirectory with the
// underlying fsnotify watcher, skipping hidden directories, node_modules
// and vendor.
func (w *Watcher) AddPath(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("watch: resolving %s: %w", root, err)
	}

	added := 0
	err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("watch: failed to watch %s: %v", path, err)
			return nil
		}
		added++
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walking %s: %w", abs, err)
	}

	log.Printf("watch: watching %s (%d directories)", abs, added)
	return nil
}

// Run blocks, dispatching debounced change events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return w.fsw.Close()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: error: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	var kind Event
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		kind = EventCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		kind = EventModify
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		kind = EventDelete
	default:
		return
	}

	path := event.Name

	w.mu.Lock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if err := w.handler(ctx, path, kind); err != nil {
			log.Printf("watch: handler failed for %s (%s): %v", path, kind, err)
		}
	})
	w.mu.Unlock()
}

// Close stops the watcher, cancelling any pending debounce timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()
	return w.fsw.Close()
}
