// Package watch reports filesystem changes in a set of directories.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is one change under a watched directory.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors directories for file changes using fsnotify. Events are
// delivered on a buffered channel; when the consumer falls behind, extra
// events are dropped since callers only need to know that something moved.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	events    chan Event
	stop      chan struct{}
	done      chan struct{}
	logger    *zap.Logger

	mu     sync.Mutex
	dirs   map[string]struct{}
	closed bool
}

// New creates a watcher and starts its event loop.
func New(logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		fsWatcher: fsWatcher,
		events:    make(chan Event, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger,
		dirs:      make(map[string]struct{}),
	}
	go w.loop()
	return w, nil
}

// Events delivers changes. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Add starts watching dir.
func (w *Watcher) Add(dir string) error {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("watcher closed")
	}
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}
	w.dirs[dir] = struct{}{}
	w.logger.Debug("watching directory", zap.String("dir", dir))
	return nil
}

// Remove stops watching dir.
func (w *Watcher) Remove(dir string) {
	dir = filepath.Clean(dir)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; !ok {
		return
	}
	delete(w.dirs, dir)
	// the directory may already be gone, which removes the watch anyway
	_ = w.fsWatcher.Remove(dir)
}

// Set makes the watched set exactly dirs. Directories that cannot be added
// are skipped and returned as errors.
func (w *Watcher) Set(dirs []string) []error {
	want := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		want[filepath.Clean(d)] = struct{}{}
	}
	for _, d := range w.Dirs() {
		if _, ok := want[d]; !ok {
			w.Remove(d)
		}
	}
	var errs []error
	for d := range want {
		if err := w.Add(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Dirs lists the watched directories, sorted.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Close stops the event loop and closes Events. It is safe to call twice.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	err := w.fsWatcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.events)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// attribute-only changes (atime, chmod) do not alter listings
			if event.Op == fsnotify.Chmod {
				continue
			}
			select {
			case w.events <- Event{Path: event.Name, Op: event.Op}:
			default:
				w.logger.Debug("event channel full, dropped event", zap.String("path", event.Name))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify watcher error", zap.Error(err))

		case <-w.stop:
			return
		}
	}
}
