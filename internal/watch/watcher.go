// Package watch turns roster file edits into change notifications for
// the reconciliation engine. It watches the roster's directory with
// fsnotify (the file itself may be replaced by rename, and SQLite writes
// touch sidecar -wal/-journal files) and optionally fires periodic full
// reconciles on a cron schedule.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// Notifier receives change notifications. Each call is an independent,
// concurrently-running invocation; the debounce protocol inside the
// notifier collapses bursts. Satisfied by *reconcile.Coalescer.
type Notifier interface {
	OnChange(ctx context.Context) error
}

// Watcher connects filesystem events on the roster file to a Notifier.
type Watcher struct {
	rosterPath string
	notifier   Notifier
	schedule   string // optional cron spec for periodic reconciles
	logger     *slog.Logger
}

// New creates a Watcher for the roster file at path. schedule may be
// empty to disable periodic reconciles.
func New(path string, notifier Notifier, schedule string, logger *slog.Logger) *Watcher {
	return &Watcher{
		rosterPath: filepath.Clean(path),
		notifier:   notifier,
		schedule:   schedule,
		logger:     logger,
	}
}

// Run watches until the context is canceled, returning nil on clean
// shutdown. Each relevant filesystem event and each cron tick spawns its
// own notification goroutine — mirroring a trigger mechanism that
// invokes the engine once per edit.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.rosterPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: watching %s: %w", dir, err)
	}

	var sched *cron.Cron

	if w.schedule != "" {
		sched = cron.New()

		_, err := sched.AddFunc(w.schedule, func() {
			w.logger.Debug("scheduled reconcile tick")
			go w.invoke(ctx)
		})
		if err != nil {
			return fmt.Errorf("watch: invalid refresh schedule %q: %w", w.schedule, err)
		}

		sched.Start()
		defer sched.Stop()
	}

	w.logger.Info("watching roster for changes",
		slog.String("path", w.rosterPath),
		slog.String("refresh", w.schedule),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			w.handleEvent(ctx, ev)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// handleEvent filters out events that do not concern the roster file and
// spawns a notification for the rest.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	// Mode changes carry no data change.
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	if !w.concernsRoster(ev.Name) {
		w.logger.Debug("ignoring event on unrelated path", slog.String("path", ev.Name))
		return
	}

	w.logger.Debug("roster change detected",
		slog.String("path", ev.Name),
		slog.String("op", ev.Op.String()),
	)

	go w.invoke(ctx)
}

// concernsRoster reports whether an event path is the roster file or one
// of its sidecars (roster.db-wal, roster.db-journal, atomic-rename temp
// files).
func (w *Watcher) concernsRoster(path string) bool {
	path = filepath.Clean(path)
	if path == w.rosterPath {
		return true
	}

	return filepath.Dir(path) == filepath.Dir(w.rosterPath) &&
		strings.HasPrefix(filepath.Base(path), filepath.Base(w.rosterPath))
}

// invoke runs one notification, logging failures that are not plain
// shutdown.
func (w *Watcher) invoke(ctx context.Context) {
	if err := w.notifier.OnChange(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("reconciliation failed", slog.String("error", err.Error()))
	}
}
