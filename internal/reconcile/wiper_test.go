package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkarvinen/bdaymirror/internal/calendar"
)

func TestWiper_SeriesDedup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cal := calendar.NewMemoryCalendar()

	// One series whose 100-year scan yields 100 occurrences, plus 3
	// standalone events.
	start := time.Date(2024, time.July, 4, 12, 0, 0, 0, time.UTC)
	cal.AddYearly("🎂 Alice", start)
	cal.AddStandalone("One", start.AddDate(0, 1, 0))
	cal.AddStandalone("Two", start.AddDate(0, 2, 0))
	cal.AddStandalone("Three", start.AddDate(0, 3, 0))

	events, err := cal.Events(ctx, start, start.AddDate(100, 0, 0))
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	if len(events) != 103 {
		t.Fatalf("len(events) = %d, want 103 (100 occurrences + 3 standalone)", len(events))
	}

	seriesDeleted, eventsDeleted, failures := NewWiper(testLogger()).Wipe(ctx, events)

	if seriesDeleted != 1 {
		t.Errorf("seriesDeleted = %d, want exactly 1 series-delete call", seriesDeleted)
	}

	if eventsDeleted != 3 {
		t.Errorf("eventsDeleted = %d, want 3 individual deletes", eventsDeleted)
	}

	if failures != 0 {
		t.Errorf("failures = %d, want 0", failures)
	}

	// 4 delete calls total: 1 series + 3 standalone. A naive per-event
	// loop would have issued 103.
	if got := len(cal.DeleteLog()); got != 4 {
		t.Errorf("delete calls = %d, want 4", got)
	}
}

func TestWiper_FailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cal := calendar.NewMemoryCalendar()

	start := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	bad := cal.AddStandalone("Bad", start)
	cal.AddStandalone("Good", start.AddDate(0, 0, 1))
	cal.AddYearly("🎂 Carol", start.AddDate(0, 0, 2))

	cal.DeleteHook = func(uid string) error {
		if uid == bad {
			return errors.New("object already gone")
		}

		return nil
	}

	events, err := cal.Events(ctx, start, start.AddDate(1, 0, 0))
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	seriesDeleted, eventsDeleted, failures := NewWiper(testLogger()).Wipe(ctx, events)

	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}

	if eventsDeleted != 1 {
		t.Errorf("eventsDeleted = %d, want 1 (the good standalone)", eventsDeleted)
	}

	if seriesDeleted != 1 {
		t.Errorf("seriesDeleted = %d, want 1 (processing continued past the failure)", seriesDeleted)
	}
}

func TestWiper_FailedSeriesNotRetriedPerOccurrence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cal := calendar.NewMemoryCalendar()

	start := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	cal.AddYearly("🎂 Stuck", start)

	calls := 0
	cal.DeleteHook = func(string) error {
		calls++
		return errors.New("backend down")
	}

	events, err := cal.Events(ctx, start, start.AddDate(10, 0, 0))
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	if len(events) != 10 {
		t.Fatalf("len(events) = %d, want 10", len(events))
	}

	_, _, failures := NewWiper(testLogger()).Wipe(ctx, events)

	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}

	// The series id was recorded before the failed call, so the other
	// nine occurrences were skipped rather than retried.
	if calls != 1 {
		t.Errorf("delete attempts = %d, want 1", calls)
	}
}

func TestWiper_EmptyBatch(t *testing.T) {
	t.Parallel()

	seriesDeleted, eventsDeleted, failures := NewWiper(testLogger()).Wipe(context.Background(), nil)

	if seriesDeleted != 0 || eventsDeleted != 0 || failures != 0 {
		t.Errorf("Wipe(nil) = (%d, %d, %d), want all zero", seriesDeleted, eventsDeleted, failures)
	}
}
