package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkarvinen/bdaymirror/internal/calendar"
	"github.com/pkarvinen/bdaymirror/internal/config"
	"github.com/pkarvinen/bdaymirror/internal/reconcile"
	"github.com/pkarvinen/bdaymirror/internal/roster"
)

// reportDurationUnit keeps printed run durations readable.
const reportDurationUnit = time.Millisecond

// newSource builds the roster source selected by cfg. The returned
// cleanup func must be called once the source is no longer needed; it is
// a no-op for the CSV backend.
func newSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (roster.Source, func() error, error) {
	switch cfg.Roster.Backend {
	case config.BackendCSV:
		src := &roster.CSVSource{
			Path:         cfg.Roster.Path,
			FirstDataRow: cfg.Roster.FirstDataRow,
		}

		return src, func() error { return nil }, nil

	default:
		store, err := roster.OpenStore(ctx, cfg.Roster.Path, logger)
		if err != nil {
			return nil, nil, err
		}

		return store, store.Close, nil
	}
}

// newReconciler wires the reconciliation engine against the configured
// calendar directory and roster source.
func newReconciler(cfg *config.Config, src roster.Source, logger *slog.Logger) *reconcile.Reconciler {
	return reconcile.NewReconciler(&reconcile.Config{
		Provider:   calendar.NewFileProvider(cfg.Calendar.Dir, logger),
		CalendarID: cfg.Calendar.ID,
		Source:     src,
		Logger:     logger,
		Location:   cfg.Location(),
	})
}

// printReport writes a one-run summary for humans.
func printReport(w io.Writer, report *reconcile.Report) {
	verb := "Rebuilt"
	if report.DryRun {
		verb = "Would rebuild"
	}

	fmt.Fprintf(w, "%s calendar in %s\n", verb, report.Duration.Round(reportDurationUnit))
	fmt.Fprintf(w, "  wiped:   %d series, %d standalone events\n", report.SeriesDeleted, report.EventsDeleted)
	fmt.Fprintf(w, "  created: %d\n", report.Created)

	if report.Skipped > 0 {
		fmt.Fprintf(w, "  skipped: %d (blank or unparseable rows)\n", report.Skipped)
	}

	if report.Failed > 0 {
		fmt.Fprintf(w, "  failed:  %d\n", report.Failed)
	}

	if report.DeleteFailures > 0 {
		fmt.Fprintf(w, "  delete failures: %d (will be retried next run)\n", report.DeleteFailures)
	}
}
