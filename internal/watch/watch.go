// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reloads the command catalogue when its file changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors which save by writing a temporary file and renaming it over the
// original are still seen. Bursts of events are debounced, and reloads are
// rate limited.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// WATCHER
// =============================================================================

// ChangeFunc is called after the watched file settles.
type ChangeFunc func(ctx context.Context) error

// Watcher calls a ChangeFunc when one file changes.
type Watcher struct {
	path     string
	onChange ChangeFunc
	watcher  *fsnotify.Watcher
	debounce time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger

	closeOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long events must stop before onChange runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithMinInterval sets the minimum gap between two onChange calls.
// Zero disables the limit.
func WithMinInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d <= 0 {
			w.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		w.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New starts watching the directory holding path.
func New(path string, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		onChange: onChange,
		watcher:  fsw,
		debounce: 250 * time.Millisecond,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run delivers change notifications until ctx is done or the watcher is
// closed. It closes the watcher on return and always returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

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
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("commands file event",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			if err := w.limiter.Wait(ctx); err != nil {
				return nil
			}
			w.trigger(ctx)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}

// relevant reports whether event concerns the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) ||
		event.Has(fsnotify.Remove)
}

func (w *Watcher) trigger(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("change handler panicked", zap.Any("panic", r))
		}
	}()

	w.logger.Info("commands file changed", zap.String("path", w.path))
	if err := w.onChange(ctx); err != nil {
		w.logger.Warn("change handler failed", zap.Error(err))
	}
}
