package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jpalmerr/scopestate/config"
)

const defaultDebounce = 100 * time.Millisecond

// Option configures a [Watcher].
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits after the last event before
// reloading. Defaults to 100ms.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher reloads a config file on change.
type Watcher struct {
	path     string
	apply    func(*config.Config)
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a [Watcher] for the config file at path. apply receives every
// successfully parsed reload. A nil logger uses [slog.Default].
func New(path string, apply func(*config.Config), logger *slog.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		apply:    apply,
		logger:   logger,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching in a background goroutine and returns once the
// watch is registered. Watching ends when ctx is cancelled or [Watcher.Stop]
// is called.
//
// The parent directory is watched rather than the file itself so that
// editors replacing the file atomically are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watcher already running")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})

	go w.run(ctx, fw, w.stopCh, w.done)

	w.logger.Info("watching config file", "path", w.path)
	return nil
}

// Stop ends watching and waits for the watch goroutine to exit. Stop is a
// no-op when the watcher is not running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.done
	w.mu.Unlock()

	<-done
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer fw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-stopCh:
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "path", w.path, "error", err)

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous values", "path", w.path, "error", err)
		return
	}

	w.logger.Info("config reloaded", "path", w.path, "scopes", len(cfg.Scopes))
	w.apply(cfg)
}
