package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCalendar provisions an empty ICS calendar file named "team" in a
// temp directory and resolves it through the provider.
func newTestCalendar(t *testing.T) Calendar {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "team.ics"), nil, 0o644); err != nil {
		t.Fatalf("provisioning calendar file: %v", err)
	}

	cal, err := NewFileProvider(dir, testLogger()).Calendar(context.Background(), "team")
	if err != nil {
		t.Fatalf("Calendar() error = %v, want nil", err)
	}

	return cal
}

func TestFileProvider_MissingCalendar(t *testing.T) {
	t.Parallel()

	p := NewFileProvider(t.TempDir(), testLogger())

	_, err := p.Calendar(context.Background(), "nope")
	if !errors.Is(err, ErrCalendarNotFound) {
		t.Errorf("Calendar() error = %v, want ErrCalendarNotFound", err)
	}
}

func TestFileProvider_EmptyID(t *testing.T) {
	t.Parallel()

	p := NewFileProvider(t.TempDir(), testLogger())

	_, err := p.Calendar(context.Background(), "")
	if !errors.Is(err, ErrCalendarNotFound) {
		t.Errorf("Calendar() error = %v, want ErrCalendarNotFound", err)
	}
}

func TestFileCalendar_CreateAndQuery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cal := newTestCalendar(t)

	start := time.Date(1990, time.July, 3, 12, 0, 0, 0, time.UTC)

	series, err := cal.CreateYearly(ctx, "🎂 Carol", start)
	if err != nil {
		t.Fatalf("CreateYearly() error = %v, want nil", err)
	}

	if series.ID() == "" {
		t.Error("series ID is empty")
	}

	// A ten-year window should contain ten yearly occurrences.
	events, err := cal.Events(ctx, start, start.AddDate(10, 0, 0))
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	if len(events) != 10 {
		t.Fatalf("len(events) = %d, want 10", len(events))
	}

	for i, ev := range events {
		if ev.Title() != "🎂 Carol" {
			t.Errorf("events[%d].Title() = %q, want %q", i, ev.Title(), "🎂 Carol")
		}

		got, ok := ev.Series()
		if !ok {
			t.Fatalf("events[%d] has no series", i)
		}

		if got.ID() != series.ID() {
			t.Errorf("events[%d] series = %q, want %q", i, got.ID(), series.ID())
		}
	}
}

func TestFileCalendar_PersistsAcrossReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "team.ics"), nil, 0o644); err != nil {
		t.Fatalf("provisioning calendar file: %v", err)
	}

	p := NewFileProvider(dir, testLogger())

	cal, err := p.Calendar(ctx, "team")
	if err != nil {
		t.Fatalf("Calendar() error = %v, want nil", err)
	}

	start := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	if _, err = cal.CreateYearly(ctx, "🎂 Alice", start); err != nil {
		t.Fatalf("CreateYearly() error = %v, want nil", err)
	}

	// Reopen through a fresh provider to force reparsing the file.
	reloaded, err := NewFileProvider(dir, testLogger()).Calendar(ctx, "team")
	if err != nil {
		t.Fatalf("reloading calendar: %v", err)
	}

	// DTSTART round-trips as an all-day date, so occurrences land at
	// midnight after reload. Query a window covering 2024 through 2026.
	windowStart := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)

	events, err := reloaded.Events(ctx, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	if len(events) != 3 {
		t.Fatalf("len(events) after reload = %d, want 3", len(events))
	}

	if events[0].Title() != "🎂 Alice" {
		t.Errorf("Title() = %q, want %q", events[0].Title(), "🎂 Alice")
	}

	if _, ok := events[0].Series(); !ok {
		t.Error("reloaded event lost its series (RRULE not round-tripped)")
	}
}

func TestFileCalendar_DeleteSeries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cal := newTestCalendar(t)

	start := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	series, err := cal.CreateYearly(ctx, "🎂 Bob", start)
	if err != nil {
		t.Fatalf("CreateYearly() error = %v, want nil", err)
	}

	if err = series.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v, want nil", err)
	}

	events, err := cal.Events(ctx, start.AddDate(-1, 0, 0), start.AddDate(50, 0, 0))
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	if len(events) != 0 {
		t.Errorf("len(events) after delete = %d, want 0", len(events))
	}

	// Deleting again must fail: the object is gone.
	if err = series.DeleteAll(ctx); !errors.Is(err, ErrEventGone) {
		t.Errorf("second DeleteAll() error = %v, want ErrEventGone", err)
	}
}

func TestFileCalendar_EventsWindowExcludesEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cal := newTestCalendar(t)

	start := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	if _, err := cal.CreateYearly(ctx, "🎂 Dana", start); err != nil {
		t.Fatalf("CreateYearly() error = %v, want nil", err)
	}

	// Window ends exactly on the second occurrence — it must be excluded.
	events, err := cal.Events(ctx, start, start.AddDate(1, 0, 0))
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	if len(events) != 1 {
		t.Errorf("len(events) = %d, want 1 (end is exclusive)", len(events))
	}
}
