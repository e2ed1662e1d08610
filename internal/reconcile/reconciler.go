package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkarvinen/bdaymirror/internal/calendar"
	"github.com/pkarvinen/bdaymirror/internal/dateparse"
	"github.com/pkarvinen/bdaymirror/internal/roster"
)

// horizonYearsAhead is how far into the future the wipe scans. It must
// cover every occurrence of every series the tool could have created;
// a narrower horizon would orphan future occurrences when a roster row
// is removed.
const horizonYearsAhead = 100

// Config holds the collaborators for NewReconciler. A struct because the
// optional clock and location fields would bloat positional parameters.
type Config struct {
	Provider   calendar.Provider
	CalendarID string
	Source     roster.Source
	Logger     *slog.Logger
	Location   *time.Location   // nil → time.Local
	Now        func() time.Time // nil → time.Now, injectable for tests
}

// RunOpts holds per-run options.
type RunOpts struct {
	DryRun bool
}

// Reconciler rebuilds the destination calendar from the roster. Runs are
// deterministic given the roster contents and idempotent: two runs in a
// row converge to the same destination state.
type Reconciler struct {
	provider   calendar.Provider
	calendarID string
	source     roster.Source
	wiper      *Wiper
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewReconciler creates a Reconciler from cfg, filling optional fields
// with defaults.
func NewReconciler(cfg *Config) *Reconciler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Reconciler{
		provider:   cfg.Provider,
		calendarID: cfg.CalendarID,
		source:     cfg.Source,
		wiper:      NewWiper(cfg.Logger),
		logger:     cfg.Logger,
		loc:        loc,
		now:        now,
	}
}

// horizon returns the scan window: start of the previous calendar year
// through horizonYearsAhead years from now.
func (r *Reconciler) horizon() (time.Time, time.Time) {
	n := r.now()
	start := time.Date(n.Year()-1, time.January, 1, 0, 0, 0, 0, r.loc)

	return start, n.AddDate(horizonYearsAhead, 0, 0)
}

// Run executes one reconciliation: resolve the calendar, wipe the
// horizon, recreate one yearly series per valid roster row. Only
// configuration-class failures (unresolvable calendar, unreadable
// roster, failed horizon query) return an error; row- and object-level
// failures are contained, counted, and logged.
func (r *Reconciler) Run(ctx context.Context, opts RunOpts) (*Report, error) {
	started := time.Now()

	// Resolve the destination before touching anything. A typo in the
	// calendar id must abort the run before any deletion occurs.
	cal, err := r.provider.Calendar(ctx, r.calendarID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: resolving calendar %q: %w", r.calendarID, err)
	}

	horizonStart, horizonEnd := r.horizon()

	events, err := cal.Events(ctx, horizonStart, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("reconcile: querying events: %w", err)
	}

	rows, err := r.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: reading roster: %w", err)
	}

	report := &Report{DryRun: opts.DryRun}

	r.logger.Info("reconciliation starting",
		slog.String("calendar", r.calendarID),
		slog.Int("events_in_horizon", len(events)),
		slog.Int("roster_rows", len(rows)),
		slog.Bool("dry_run", opts.DryRun),
	)

	if opts.DryRun {
		r.planCounts(events, rows, report)
		report.Duration = time.Since(started)

		r.logger.Info("dry run complete: no changes applied",
			slog.Int("would_delete_series", report.SeriesDeleted),
			slog.Int("would_create", report.Created),
		)

		return report, nil
	}

	report.SeriesDeleted, report.EventsDeleted, report.DeleteFailures = r.wiper.Wipe(ctx, events)

	for i, row := range rows {
		outcome := r.rebuildRow(ctx, cal, row, i)

		switch outcome {
		case RowCreated:
			report.Created++
		case RowSkipped:
			report.Skipped++
		case RowFailed:
			report.Failed++
		}
	}

	report.Duration = time.Since(started)

	r.logger.Info("reconciliation complete",
		slog.Int("series_deleted", report.SeriesDeleted),
		slog.Int("events_deleted", report.EventsDeleted),
		slog.Int("delete_failures", report.DeleteFailures),
		slog.Int("created", report.Created),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration),
	)

	return report, nil
}

// rebuildRow maps one roster row to at most one created series.
func (r *Reconciler) rebuildRow(ctx context.Context, cal calendar.Calendar, row roster.Row, idx int) RowOutcome {
	if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Date) == "" {
		r.logger.Debug("skipping row with blank cells", slog.Int("row", idx))
		return RowSkipped
	}

	date, err := dateparse.Parse(row.Date, r.now)
	if err != nil {
		r.logger.Warn("skipping row with invalid date",
			slog.Int("row", idx),
			slog.String("name", row.Name),
			slog.String("date", row.Date),
			slog.String("error", err.Error()),
		)

		return RowSkipped
	}

	if _, err := cal.CreateYearly(ctx, EventTitle(row.Name), date.Midday(r.loc)); err != nil {
		r.logger.Warn("event creation failed",
			slog.Int("row", idx),
			slog.String("name", row.Name),
			slog.String("error", err.Error()),
		)

		return RowFailed
	}

	return RowCreated
}

// planCounts fills the report with what a real run would do, without
// mutating the destination.
func (r *Reconciler) planCounts(events []calendar.Event, rows []roster.Row, report *Report) {
	seen := make(map[string]bool)

	for _, ev := range events {
		series, ok := ev.Series()
		if !ok {
			report.EventsDeleted++
			continue
		}

		if !seen[series.ID()] {
			seen[series.ID()] = true
			report.SeriesDeleted++
		}
	}

	for _, row := range rows {
		if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Date) == "" {
			report.Skipped++
			continue
		}

		if _, err := dateparse.Parse(row.Date, r.now); err != nil {
			report.Skipped++
			continue
		}

		report.Created++
	}
}
