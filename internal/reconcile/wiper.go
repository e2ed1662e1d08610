package reconcile

import (
	"context"
	"log/slog"

	"github.com/pkarvinen/bdaymirror/internal/calendar"
)

// Wiper deletes a batch of destination events, collapsing the many
// in-horizon occurrences of each recurring series into a single
// series-delete call. The seen-set lives for one Wipe invocation only.
type Wiper struct {
	logger *slog.Logger
}

// NewWiper creates a Wiper.
func NewWiper(logger *slog.Logger) *Wiper {
	return &Wiper{logger: logger}
}

// Wipe removes every event in the batch. A series is deleted on its
// first occurrence and skipped on every later one: after the first
// DeleteAll the object no longer exists, and deleting it again would be
// an error. Per-object failures are logged and counted but never stop
// the batch.
func (w *Wiper) Wipe(ctx context.Context, events []calendar.Event) (seriesDeleted, eventsDeleted, failures int) {
	seen := make(map[string]bool)

	for _, ev := range events {
		series, ok := ev.Series()
		if !ok {
			if err := ev.Delete(ctx); err != nil {
				w.logger.Warn("standalone event delete failed",
					slog.String("title", ev.Title()),
					slog.String("error", err.Error()),
				)

				failures++

				continue
			}

			eventsDeleted++

			continue
		}

		id := series.ID()
		if seen[id] {
			continue
		}

		// Recorded before the call: a failed series delete is not retried
		// on the next occurrence, one failure log is enough.
		seen[id] = true

		if err := series.DeleteAll(ctx); err != nil {
			w.logger.Warn("series delete failed",
				slog.String("series_id", id),
				slog.String("title", ev.Title()),
				slog.String("error", err.Error()),
			)

			failures++

			continue
		}

		seriesDeleted++
	}

	w.logger.Debug("wipe complete",
		slog.Int("series_deleted", seriesDeleted),
		slog.Int("events_deleted", eventsDeleted),
		slog.Int("failures", failures),
	)

	return seriesDeleted, eventsDeleted, failures
}
