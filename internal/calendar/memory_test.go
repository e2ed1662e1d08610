package calendar

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProvider_Resolution(t *testing.T) {
	t.Parallel()

	p := NewMemoryProvider()
	p.AddCalendar("team")

	if _, err := p.Calendar(context.Background(), "team"); err != nil {
		t.Errorf("Calendar(team) error = %v, want nil", err)
	}

	if _, err := p.Calendar(context.Background(), "other"); !errors.Is(err, ErrCalendarNotFound) {
		t.Errorf("Calendar(other) error = %v, want ErrCalendarNotFound", err)
	}
}

func TestMemoryCalendar_YearlyOccurrences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cal := NewMemoryCalendar()

	start := time.Date(2024, time.July, 4, 12, 0, 0, 0, time.UTC)
	cal.AddYearly("🎂 Alice", start)
	cal.AddStandalone("Dentist", start.AddDate(0, 1, 0))

	events, err := cal.Events(ctx, start, start.AddDate(5, 0, 0))
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	// 5 yearly occurrences + 1 standalone.
	if len(events) != 6 {
		t.Fatalf("len(events) = %d, want 6", len(events))
	}

	yearly, standalone := 0, 0

	for _, ev := range events {
		if _, ok := ev.Series(); ok {
			yearly++
		} else {
			standalone++
		}
	}

	if yearly != 5 || standalone != 1 {
		t.Errorf("yearly = %d, standalone = %d, want 5 and 1", yearly, standalone)
	}
}

func TestMemoryCalendar_StandaloneDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cal := NewMemoryCalendar()

	start := time.Date(2024, time.July, 4, 12, 0, 0, 0, time.UTC)
	cal.AddStandalone("Dentist", start)

	events, err := cal.Events(ctx, start.AddDate(0, 0, -1), start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Events() error = %v, want nil", err)
	}

	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}

	if err = events[0].Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v, want nil", err)
	}

	if got := len(cal.Snapshot()); got != 0 {
		t.Errorf("Snapshot() has %d records after delete, want 0", got)
	}

	// Second delete of the same object must fail.
	if err = events[0].Delete(ctx); !errors.Is(err, ErrEventGone) {
		t.Errorf("second Delete() error = %v, want ErrEventGone", err)
	}
}
