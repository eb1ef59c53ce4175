// Package watch reports repository changes on disk through a debounced
// callback, so front ends know when to re-query state.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/repolens/repolens/internal/debounce"
)

// DefaultDelay is the debounce window. A git command touches many files in
// quick succession; the window collapses the burst into one callback.
const DefaultDelay = 350 * time.Millisecond

// Watcher invokes OnChange after each burst of filesystem activity under
// the repository. Close stops the watch goroutine and discards any pending
// callback.
type Watcher struct {
	delay     time.Duration
	fsw       *fsnotify.Watcher
	deb       *debounce.Debouncer
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay overrides the debounce window.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// New watches the repository at root and calls onChange after each burst of
// changes. The .git directory is watched when present, since every
// repository mutation touches it; bare layouts watch root itself.
func New(root string, onChange func(), opts ...Option) (*Watcher, error) {
	w := &Watcher{delay: DefaultDelay}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	path := watchPath(root)
	if err := fsw.Add(path); err != nil {
		err = errors.Join(err, fsw.Close())
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	slog.Debug("watching repository", slog.String("path", path))

	w.fsw = fsw
	w.deb = debounce.New(w.delay, onChange)
	go w.loop()
	return w, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.deb.Stop()
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ignorePath(ev.Name) {
				continue
			}
			slog.Debug("repository changed",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.deb.Trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("watch error", slog.Any("error", err))
		}
	}
}

func watchPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		return gitDir
	}
	return root
}

// ignorePath filters git's transient files: lock files flap on every
// command and would fire spurious callbacks.
func ignorePath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
