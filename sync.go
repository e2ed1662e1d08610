package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkarvinen/bdaymirror/internal/reconcile"
)

// newSyncCmd builds the one-shot reconciliation command.
func newSyncCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the calendar from the roster once",
		Long: `Wipe the tool's birthday events from the destination calendar and
recreate one yearly series per roster row. The run is idempotent: running
it twice in a row leaves the calendar unchanged the second time.`,
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

			var report *reconcile.Report

			ran, err := guard.Do(ctx, func(ctx context.Context) error {
				var runErr error
				report, runErr = rec.Run(ctx, reconcile.RunOpts{DryRun: dryRun})
				return runErr
			})
			if err != nil {
				return err
			}

			if !ran {
				fmt.Fprintln(cmd.OutOrStdout(), "Another reconciliation is already running; nothing to do.")
				return nil
			}

			printReport(cmd.OutOrStdout(), report)

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report planned changes without touching the calendar")

	return cmd
}
