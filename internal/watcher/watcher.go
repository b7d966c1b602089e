// Package watcher watches the notes root with fsnotify and reports debounced changes.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// Watcher watches a directory tree and calls onChange once per burst of changes.
type Watcher struct {
	root       string
	extensions []string
	onChange   func(ctx context.Context)
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	// gen identifies the armed timer; a fire from an older timer is ignored.
	gen     uint64
	ctx     context.Context
	pending []string
	done    chan struct{}
	started bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for directory and file events.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets the quiet period that must pass after the last event before
// onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for root. Only files whose extension is in
// extensions count as changes (empty means all).
func NewWatcher(root string, extensions []string, onChange func(ctx context.Context), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:       filepath.Clean(root),
		extensions: extensions,
		onChange:   onChange,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns after the tree is registered; events are handled
// in a background goroutine until ctx is cancelled or Stop is called. A missing root
// is created.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addTree(fw, w.root, w.logger); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.ctx = ctx
	w.done = make(chan struct{})
	w.started = true
	w.logger.Info("watching notes", zap.String("root", w.root), zap.Duration("debounce", w.debounce))
	go w.run(ctx, fw, w.done)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || hidden(w.root, ev.Name) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addTree(fw, ev.Name, w.logger); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
			w.schedule(ev.Name)
			return
		}
	}
	// A removed or renamed directory has no extension; its files were notes we indexed.
	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		if filepath.Ext(ev.Name) == "" || matchExtension(ev.Name, w.extensions) {
			w.schedule(ev.Name)
		}
		return
	}
	if matchExtension(ev.Name, w.extensions) {
		w.schedule(ev.Name)
	}
}

// schedule resets the single debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending = append(w.pending, path)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.timer = time.AfterFunc(w.debounce, func() { w.fire(gen) })
}

func (w *Watcher) fire(gen uint64) {
	w.mu.Lock()
	if !w.started || gen != w.gen {
		w.mu.Unlock()
		return
	}
	paths := w.pending
	w.pending = nil
	w.timer = nil
	ctx := w.ctx
	w.mu.Unlock()

	w.logger.Info("notes changed", zap.Int("events", len(paths)))
	if w.onChange != nil {
		w.onChange(ctx)
	}
}

// Pending reports whether a change is waiting for the debounce period to elapse.
func (w *Watcher) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil
}

// Stop stops watching and cancels any pending callback. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = nil
	_ = w.watcher.Close()
	close(w.done)
	w.started = false
	w.logger.Debug("watcher stopped", zap.String("root", w.root))
}

// addTree registers dir and every non-hidden directory below it.
func addTree(fw *fsnotify.Watcher, dir string, logger *zap.Logger) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return err
		}
		logger.Debug("watching directory", zap.String("path", path))
		return nil
	})
}

// hidden reports whether any element of path below root starts with a dot.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
