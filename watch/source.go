package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Source forwards fsnotify events for a directory tree to a Scheduler.
type Source struct {
	watcher *fsnotify.Watcher
	sched   *Scheduler
	logger  *slog.Logger
	ignore  []string
}

// NewSource watches root and every directory below it. Directories listed
// in ignore, such as an output tree nested in the source tree, are skipped.
func NewSource(root string, sched *Scheduler, logger *slog.Logger, ignore ...string) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	src := &Source{watcher: watcher, sched: sched, logger: logger}
	for _, dir := range ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			src.ignore = append(src.ignore, abs)
		}
	}
	if err := src.addRecursive(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return src, nil
}

// Run forwards events until ctx is cancelled or the watcher closes.
func (src *Source) Run(ctx context.Context) {
	defer src.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src.watcher.Events:
			if !ok {
				return
			}
			src.handle(ev)
		case err, ok := <-src.watcher.Errors:
			if !ok {
				return
			}
			src.logger.Warn("watcher error", "error", err)
		}
	}
}

func (src *Source) handle(ev fsnotify.Event) {
	if src.ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := src.addRecursive(ev.Name); err != nil {
				src.logger.Warn("watch add failed", "dir", ev.Name, "error", err)
			}
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	src.logger.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
	src.sched.Notify(ev.Name)
}

func (src *Source) ignored(path string) bool {
	for _, dir := range src.ignore {
		if path == dir {
			return true
		}
		if rel, err := filepath.Rel(dir, path); err == nil && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel) {
			return true
		}
	}
	return false
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

func (src *Source) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if src.ignored(path) {
			return filepath.SkipDir
		}
		if err := src.watcher.Add(path); err != nil {
			src.logger.Warn("watch add failed", "dir", path, "error", err)
		}
		return nil
	})
}
