package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"impactgraph/internal/shared/observability"
	"impactgraph/internal/shared/util"
)

// Matcher excludes project-relative paths from watching.
type Matcher interface {
	Match(path string) bool
	MatchDir(dir string) bool
}

// Watcher reports batches of changed project-relative paths. Events are
// debounced; flushes are additionally paced by an optional limiter, and a
// flush that is not allowed yet stays pending until the next attempt.
type Watcher struct {
	root       string
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	ignore     Matcher
	limiter    *util.Limiter
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
	closed    bool
}

func NewWatcher(root string, debounce time.Duration, ignore Matcher, limiter *util.Limiter, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:      absRoot,
		fsWatcher: fsw,
		debounce:  debounce,
		ignore:    ignore,
		limiter:   limiter,
		onChange:  onChange,
		pending:   make(map[string]time.Time),
	}, nil
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Watch registers the project tree and starts the event loop.
func (w *Watcher) Watch() error {
	if err := w.watchRecursive(w.root); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldExcludeDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			rel, ok := w.relative(event.Name)
			if !ok || (w.ignore != nil && w.ignore.Match(rel)) {
				observability.WatcherDroppedTotal.Inc()
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(rel)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, ok := util.RelativeTo(w.root, path)
	if !ok || rel == "" {
		return "", false
	}
	return rel, true
}

func (w *Watcher) scheduleChange(rel string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[rel] = time.Now()
	w.resetTimerLocked()
}

func (w *Watcher) resetTimerLocked() {
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	if w.limiter != nil && !w.limiter.Allow(1) {
		slog.Debug("watch flush deferred by rate limit", "pending", len(w.pending))
		w.resetTimerLocked()
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	sort.Strings(paths)
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	rel, ok := util.RelativeTo(w.root, path)
	if !ok {
		return true
	}
	return rel != "" && w.ignore != nil && w.ignore.MatchDir(rel)
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, ok := w.relative(path)
		if !ok || (w.ignore != nil && w.ignore.Match(rel)) {
			return nil
		}
		w.scheduleChange(rel)
		return nil
	})
}
