// Package watch reports changes to a single file, such as the config file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	appLog "riverside/internal/log"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// File watches path and calls onChange after writes settle. The parent
// directory is watched rather than the file so atomic rename-over saves
// (including config.Save) are seen.
type File struct {
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
}

func NewFile(path string, debounce time.Duration, onChange func()) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &File{path: abs, debounce: debounce, onChange: onChange, watcher: w}, nil
}

// Run delivers change callbacks until ctx is done, then closes the watcher.
func (f *File) Run(ctx context.Context) {
	defer f.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			appLog.Debug("watched file event", "path", f.path, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(f.debounce)
			} else {
				timer.Reset(f.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			appLog.Info("watched file changed", "path", f.path)
			f.onChange()

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			appLog.Warn("file watcher error", "path", f.path, "err", err)
		}
	}
}
