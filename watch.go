package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pkarvinen/bdaymirror/internal/reconcile"
	"github.com/pkarvinen/bdaymirror/internal/watch"
)

// newWatchCmd builds the long-running watch-and-reconcile command.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the roster and keep the calendar in sync",
		Long: `Run until interrupted, reconciling the calendar whenever the roster
file changes. Bursts of edits are debounced into a single run, and an
optional cron schedule (sync.refresh in the config) forces periodic full
reconciles even without edits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()
			ctx := cmd.Context()

			src, cleanup, err := newSource(ctx, loadedCfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			rec := newReconciler(loadedCfg, src, logger)
			guard := reconcile.NewGuard(loadedCfg.LockWait(), logger)

			coalescer := reconcile.NewCoalescer(&reconcile.CoalescerConfig{
				Store:  &reconcile.MemoryTokenStore{},
				Guard:  guard,
				Logger: logger,
				Window: loadedCfg.DebounceWindow(),
				Run: func(ctx context.Context) error {
					report, err := rec.Run(ctx, reconcile.RunOpts{})
					if err != nil {
						return err
					}

					logger.Info("reconciled",
						slog.Int("created", report.Created),
						slog.Int("series_deleted", report.SeriesDeleted),
						slog.Int("skipped", report.Skipped),
						slog.Int("failed", report.Failed),
						slog.Duration("took", report.Duration),
					)

					return nil
				},
			})

			// Startup reconcile so a calendar that drifted while the
			// watcher was down heals immediately.
			if _, err := guard.Do(ctx, func(ctx context.Context) error {
				_, runErr := rec.Run(ctx, reconcile.RunOpts{})
				return runErr
			}); err != nil && ctx.Err() == nil {
				logger.Error("startup reconcile failed", slog.String("error", err.Error()))
			}

			w := watch.New(loadedCfg.Roster.Path, coalescer, loadedCfg.Sync.Refresh, logger)

			return w.Run(ctx)
		},
	}
}

var _ watch.Notifier = (*reconcile.Coalescer)(nil)
