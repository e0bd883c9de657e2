package source

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher turns filesystem activity under a set of source patterns into
// debounced trigger calls.
type Watcher struct {
	roots    []rootSpec
	debounce time.Duration
	logger   *slog.Logger
}

type rootSpec struct {
	dir       string
	recursive bool
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for activity to settle.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets a custom logger.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for the directories the patterns cover.
func NewWatcher(patterns []string, opts ...WatchOption) (*Watcher, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	w := &Watcher{
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, p := range patterns {
		w.roots = append(w.roots, watchRoot(p))
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watcher")
	return w, nil
}

// watchRoot finds the directory to watch for a pattern.
func watchRoot(pattern string) rootSpec {
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		return rootSpec{dir: pattern, recursive: true}
	}
	if root, _, ok := splitDoubleStar(pattern); ok {
		return rootSpec{dir: root, recursive: true}
	}
	dir := filepath.Dir(pattern)
	recursive := false
	for strings.ContainsAny(dir, "*?[") {
		dir = filepath.Dir(dir)
		recursive = true
	}
	return rootSpec{dir: dir, recursive: recursive}
}

// Run watches until ctx is done, calling trigger once per burst of events.
// trigger runs on the watcher goroutine; a slow trigger delays the next one.
func (w *Watcher) Run(ctx context.Context, trigger func(context.Context)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := w.add(fsw, root.dir, root.recursive); err != nil {
			return err
		}
	}
	w.logger.Info("watching sources", "dirs", fsw.WatchList())

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("source changed", "path", event.Name, "op", event.Op.String())
			if event.Has(fsnotify.Create) && w.isRecursive(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(fsw, event.Name, true); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "err", err)
					}
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)
		case <-timer.C:
			trigger(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *Watcher) isRecursive(path string) bool {
	for _, root := range w.roots {
		if root.recursive && within(root.dir, path) {
			return true
		}
	}
	return false
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// add watches dir and, when recursive, every non-hidden directory below it.
func (w *Watcher) add(fsw *fsnotify.Watcher, dir string, recursive bool) error {
	if !recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if slices.Contains(fsw.WatchList(), path) {
			return nil
		}
		return fsw.Add(path)
	})
}
