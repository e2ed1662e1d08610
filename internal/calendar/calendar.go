// Package calendar defines the destination-calendar collaborator used by
// the reconciler, plus two implementations: an ICS-file-backed calendar
// (production) and an in-memory calendar (tests, dry runs).
//
// The model mirrors recurring-event services: a Series is the single
// logical recurring object, an Event is one dated occurrence of it. A
// wide range query returns one Event per occurrence, so the same Series
// is seen many times.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrCalendarNotFound is returned by Provider.Calendar when the
// configured calendar identifier does not resolve. Callers must treat
// this as fatal before performing any mutation.
var ErrCalendarNotFound = errors.New("calendar: calendar not found")

// ErrEventGone is returned when deleting an event or series that no
// longer exists in the destination.
var ErrEventGone = errors.New("calendar: event no longer exists")

// Provider resolves calendar identifiers to calendars.
type Provider interface {
	// Calendar returns the calendar with the given identifier, or an
	// error wrapping ErrCalendarNotFound if it does not resolve.
	Calendar(ctx context.Context, id string) (Calendar, error)
}

// Calendar is a single destination calendar.
type Calendar interface {
	// Events returns every occurrence in [start, end), ordered by start
	// time. Occurrences of the same series share one Series identity.
	Events(ctx context.Context, start, end time.Time) ([]Event, error)

	// CreateYearly creates an annually-recurring all-day event starting
	// on the day of start and returns the new series.
	CreateYearly(ctx context.Context, title string, start time.Time) (Series, error)
}

// Event is one occurrence in the destination calendar.
type Event interface {
	// Title returns the event summary.
	Title() string

	// Start returns the occurrence start instant.
	Start() time.Time

	// Series returns the recurring series this occurrence belongs to,
	// or ok=false for a standalone event.
	Series() (Series, bool)

	// Delete removes this standalone event. Calling Delete on an
	// occurrence of a series is an error; delete the series instead.
	Delete(ctx context.Context) error
}

// Series is a recurring-event series. Deleting it removes all past and
// future occurrences atomically.
type Series interface {
	// ID returns the opaque series identifier, stable across queries.
	ID() string

	// DeleteAll removes the series and every occurrence it generates.
	// Returns an error wrapping ErrEventGone if the series was already
	// deleted.
	DeleteAll(ctx context.Context) error
}
