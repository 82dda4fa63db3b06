package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig controls the Store's background file watch.
type WatcherConfig struct {
	// DebounceInterval is how long to wait for the file to go quiet before
	// reloading, absorbing editors that write in several small ops.
	// Default: 200ms
	DebounceInterval time.Duration
}

// DefaultWatcherConfig returns the spec's suggested 200ms debounce.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{DebounceInterval: 200 * time.Millisecond}
}

// Watch watches the Store's config file for changes and reloads on each
// debounced change event. It blocks until ctx is cancelled. A failed reload
// is logged and does not stop the watch loop.
func (s *Store) Watch(ctx context.Context, wc WatcherConfig) error {
	if wc.DebounceInterval <= 0 {
		wc = DefaultWatcherConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.path); err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}

	debounce := newDebouncer(wc.DebounceInterval)
	defer debounce.stop()

	s.logger.Info("config watcher started", "path", s.path, "debounce_ms", wc.DebounceInterval.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			debounce.trigger(func() {
				if err := s.Reload(); err != nil {
					s.logger.Error("config reload failed, keeping previous snapshot", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}
			s.logger.Error("config watcher error", "error", err)
		}
	}
}

// debouncer collects rapid-fire events and invokes its callback once no new
// event has arrived for the configured interval.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, callback)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
