package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the Watcher waits for the tree to settle
// before reporting a batch of changes.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to supported corpus files below a root.
type Watcher struct {
	root     string
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// NewWatcher watches root and every non-hidden directory below it.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{root: root, debounce: debounce, fs: fw}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is done, calling onChange with the sorted set of
// changed paths after each quiet period. Removed files are included.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isDir(ev.Name) && !hidden(filepath.Base(ev.Name)) {
				if err := w.addTree(ev.Name); err != nil {
					log.Warn().Err(err).Str("component", "watcher").Msg("failed to watch new directory")
				}
				continue
			}
			if !relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("component", "watcher").Msg("watch error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			onChange(paths)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// relevant filters out attribute changes, hidden files and file types Walk
// would skip.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if hidden(filepath.Base(ev.Name)) {
		return false
	}
	return Supported(ev.Name)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
