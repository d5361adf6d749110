// Package watch reloads templates when files under a directory change.
//
// Filesystem events are coalesced: the callback fires once per quiet period
// with every path that changed during it.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// Config holds the parameters for a Watcher.
type Config struct {
	// Dir is the root directory to watch, recursively.
	Dir string

	// Patterns select which files trigger the callback (doublestar globs
	// relative to Dir, e.g. "**/*.html"). Empty watches every file.
	Patterns []string

	// Ignore adds patterns to the built-in ignores.
	Ignore []string

	// Debounce is the quiet period before OnChange fires.
	Debounce time.Duration

	// OnChange receives the changed paths, relative to Dir and sorted.
	OnChange func(ctx context.Context, changed []string) error

	Logger *slog.Logger
}

// Watcher fires a debounced callback when matching files change.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	ignores  []string
	debounce time.Duration
	dir      string
	logger   *slog.Logger
	started  atomic.Bool
}

// New creates a Watcher and registers every non-ignored directory under
// cfg.Dir.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch: no directory")
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}
	for _, pat := range append(slices.Clone(cfg.Patterns), cfg.Ignore...) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid pattern %q", pat)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		dir:      dir,
		logger:   logger,
	}
	if err := w.addDirectories(); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation, after a running callback has returned. Run may be called
// only once.
//
// Paths that change while OnChange runs are delivered in the next call.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "error", err)
		}
	}()

	pending := make(map[string]struct{})
	settle := time.NewTimer(w.debounce)
	settle.Stop()
	defer settle.Stop()

	// busy is closed when the running callback returns; nil when idle.
	var busy chan struct{}

	for {
		select {
		case <-ctx.Done():
			if busy != nil {
				<-busy
			}
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: event channel closed")
			}
			if rel, ok := w.relevant(evt); ok {
				pending[rel] = struct{}{}
				settle.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: error channel closed")
			}
			w.logger.Warn("fsnotify error", "error", err)

		case <-settle.C:
			if busy != nil {
				settle.Reset(w.debounce)
				continue
			}
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			busy = make(chan struct{})
			go w.notify(ctx, changed, busy)

		case <-busy:
			busy = nil
		}
	}
}

func (w *Watcher) notify(ctx context.Context, changed []string, done chan struct{}) {
	defer close(done)
	w.logger.Debug("files changed", "count", len(changed))
	if w.cfg.OnChange == nil {
		return
	}
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.logger.Error("watch callback failed", "error", err)
	}
}

// relevant reports the slash-separated path of evt relative to the watched
// directory, if the event should reach OnChange. New directories are added
// to the watch list on the way.
func (w *Watcher) relevant(evt fsnotify.Event) (string, bool) {
	if evt.Op == fsnotify.Chmod {
		return "", false
	}
	rel, err := filepath.Rel(w.dir, evt.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.shouldIgnore(rel) {
		return "", false
	}
	if evt.Has(fsnotify.Create) {
		w.watchIfDir(evt.Name)
	}
	return rel, w.matches(rel)
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == w.dir {
				return err
			}
			w.logger.Warn("skipping inaccessible path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.dir, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && (w.shouldIgnore(rel) || w.shouldIgnore(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", w.dir, err)
	}
	return nil
}

func (w *Watcher) watchIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) shouldIgnore(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
	}
	return false
}
