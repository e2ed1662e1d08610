// Package reconcile implements the wipe-and-rebuild engine that keeps a
// destination calendar mirroring the birthday roster. It carries no state
// between runs besides a transient debounce token: every run deletes all
// tool-visible destination events in a wide horizon and recreates one
// yearly series per valid roster row, so any manual tampering of the
// destination is healed by the next run.
package reconcile

import "time"

// eventTitlePrefix is the decorative marker prepended to every created
// event title.
const eventTitlePrefix = "🎂 "

// EventTitle builds the deterministic destination title for a roster name.
func EventTitle(name string) string {
	return eventTitlePrefix + name
}

// RowOutcome classifies what happened to one roster row during rebuild.
type RowOutcome int

// Row outcomes aggregated into the Report.
const (
	RowCreated RowOutcome = iota // event series created
	RowSkipped                   // blank cells or unparseable date
	RowFailed                    // destination rejected the create
)

// String returns the lowercase outcome name.
func (o RowOutcome) String() string {
	switch o {
	case RowCreated:
		return "created"
	case RowSkipped:
		return "skipped"
	case RowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Report summarizes one reconciliation run for logging and the CLI.
type Report struct {
	DryRun bool

	// Wipe phase.
	SeriesDeleted  int // recurring series removed (one call per series)
	EventsDeleted  int // standalone events removed individually
	DeleteFailures int // per-object delete errors, logged and skipped

	// Rebuild phase.
	Created int
	Skipped int
	Failed  int

	Duration time.Duration
}
