package plugin

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// DefaultDebounce is the quiet period after the last change before a
// reload is triggered.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changes to plugin files through a debounced callback.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	logger   hclog.Logger
}

// NewWatcher creates a Watcher for the given directories. Directories that
// do not exist are created.
func NewWatcher(logger hclog.Logger, debounce time.Duration, dirs ...string) *Watcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dirs: dirs, debounce: debounce, logger: logger.Named("watch")}
}

// Run watches until ctx is done, calling onChange after each burst of
// plugin file changes. Only files that KindForFile accepts count.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.logger.Debug("watching directory", "dir", dir)
	}

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if _, plugin := KindForFile(ev.Name); !plugin {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Trace("plugin file changed", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		case <-fire:
			onChange(ctx)
		}
	}
}
