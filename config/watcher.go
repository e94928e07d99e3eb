package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/joyremap/joyremap/utils"
)

// reloadDebounce coalesces the event bursts editors produce into a
// single reload.
const reloadDebounce = time.Second

// Watcher reloads the config file whenever it changes on disk and
// delivers the result on Config.
type Watcher struct {
	events  chan *Config
	workers utils.StoppableWorkers
}

type watcherOptions struct {
	clk      clock.Clock
	debounce time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*watcherOptions)

// WithClock substitutes the clock used for reload debouncing.
func WithClock(clk clock.Clock) WatcherOption {
	return func(o *watcherOptions) { o.clk = clk }
}

// WithDebounce overrides the reload debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(o *watcherOptions) { o.debounce = d }
}

// NewWatcher watches the config file at path. The file does not have
// to exist yet; its directory does.
func NewWatcher(path string, logger golog.Logger, opts ...WatcherOption) (*Watcher, error) {
	o := watcherOptions{clk: clock.New(), debounce: reloadDebounce}
	for _, opt := range opts {
		opt(&o)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	// watch the directory so editors that replace the file are seen
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		goutils.UncheckedError(fsWatcher.Close())
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(path))
	}

	w := &Watcher{events: make(chan *Config)}
	target := filepath.Clean(path)

	w.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		defer func() {
			goutils.UncheckedError(fsWatcher.Close())
		}()
		var debounce *clock.Timer
		var debounceC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if debounce == nil {
					debounce = o.clk.Timer(o.debounce)
					debounceC = debounce.C
				} else {
					debounce.Reset(o.debounce)
				}
			case <-debounceC:
				debounce = nil
				debounceC = nil
				cfg, err := Read(path, logger)
				if err != nil {
					logger.Errorw("failed to reload config", "path", path, "error", err)
					continue
				}
				select {
				case w.events <- cfg:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Errorw("config watcher error", "error", err)
			}
		}
	})
	return w, nil
}

// Config returns the channel fresh configs are delivered on.
func (w *Watcher) Config() <-chan *Config {
	return w.events
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.workers.Stop()
	return nil
}
