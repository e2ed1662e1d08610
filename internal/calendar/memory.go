package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryProvider is an in-memory Provider used in tests and dry runs.
// Calendars must be registered with AddCalendar before they resolve.
type MemoryProvider struct {
	mu        sync.Mutex
	calendars map[string]*MemoryCalendar
}

// NewMemoryProvider returns an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{calendars: make(map[string]*MemoryCalendar)}
}

// AddCalendar registers an empty calendar under id and returns it.
func (p *MemoryProvider) AddCalendar(id string) *MemoryCalendar {
	p.mu.Lock()
	defer p.mu.Unlock()

	cal := NewMemoryCalendar()
	p.calendars[id] = cal

	return cal
}

// Calendar resolves id to a registered calendar.
func (p *MemoryProvider) Calendar(_ context.Context, id string) (Calendar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cal, ok := p.calendars[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCalendarNotFound, id)
	}

	return cal, nil
}

// memRecord is one stored entry: a yearly series or a standalone event.
type memRecord struct {
	uid    string
	title  string
	start  time.Time
	yearly bool
}

// MemoryCalendar is an in-memory Calendar. It mimics the occurrence
// semantics of a real recurring-event service: a yearly series shows up
// once per year inside the queried range. Safe for concurrent use.
type MemoryCalendar struct {
	mu      sync.Mutex
	records map[string]*memRecord

	// Test hooks. When set, mutations consult them first.
	CreateErr  error                   // returned by CreateYearly
	DeleteHook func(uid string) error  // returned by Delete/DeleteAll
	CreateLog  []string                // titles passed to CreateYearly
	deleteLog  []string                // uids actually deleted
}

// NewMemoryCalendar returns an empty MemoryCalendar.
func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{records: make(map[string]*memRecord)}
}

// AddStandalone inserts a non-recurring event, as a user tampering with
// the destination in another client would. Returns the new uid.
func (c *MemoryCalendar) AddStandalone(title string, start time.Time) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	uid := uuid.NewString()
	c.records[uid] = &memRecord{uid: uid, title: title, start: start}

	return uid
}

// AddYearly inserts a yearly series directly, bypassing CreateYearly
// bookkeeping. Returns the new uid.
func (c *MemoryCalendar) AddYearly(title string, start time.Time) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	uid := uuid.NewString()
	c.records[uid] = &memRecord{uid: uid, title: title, start: start, yearly: true}

	return uid
}

// Snapshot returns "title@year-month-day[/yearly]" strings for all stored
// records, sorted. Convenient for state comparisons in tests.
func (c *MemoryCalendar) Snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.records))
	for _, rec := range c.records {
		s := fmt.Sprintf("%s@%s", rec.title, rec.start.Format("2006-01-02"))
		if rec.yearly {
			s += "/yearly"
		}

		out = append(out, s)
	}

	sort.Strings(out)

	return out
}

// DeleteLog returns the uids deleted so far, in deletion order.
func (c *MemoryCalendar) DeleteLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.deleteLog...)
}

// Events returns each standalone event and one occurrence per year of
// each series within [start, end), ordered by start time then uid.
func (c *MemoryCalendar) Events(_ context.Context, start, end time.Time) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var events []Event

	for _, rec := range c.records {
		if !rec.yearly {
			if !rec.start.Before(start) && rec.start.Before(end) {
				events = append(events, &memEvent{cal: c, rec: rec, occurrence: rec.start})
			}

			continue
		}

		for occ := rec.start; occ.Before(end); occ = occ.AddDate(1, 0, 0) {
			if occ.Before(start) {
				continue
			}

			events = append(events, &memEvent{cal: c, rec: rec, occurrence: occ})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		ei, ej := events[i].(*memEvent), events[j].(*memEvent)
		if !ei.occurrence.Equal(ej.occurrence) {
			return ei.occurrence.Before(ej.occurrence)
		}

		return ei.rec.uid < ej.rec.uid
	})

	return events, nil
}

// CreateYearly adds a yearly series, honoring the CreateErr hook.
func (c *MemoryCalendar) CreateYearly(_ context.Context, title string, start time.Time) (Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CreateLog = append(c.CreateLog, title)

	if c.CreateErr != nil {
		return nil, c.CreateErr
	}

	uid := uuid.NewString()
	c.records[uid] = &memRecord{uid: uid, title: title, start: start, yearly: true}

	return &memSeries{cal: c, uid: uid}, nil
}

// deleteRecord removes uid, honoring the DeleteHook.
func (c *MemoryCalendar) deleteRecord(uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.DeleteHook != nil {
		if err := c.DeleteHook(uid); err != nil {
			return err
		}
	}

	if _, ok := c.records[uid]; !ok {
		return fmt.Errorf("%w: %s", ErrEventGone, uid)
	}

	delete(c.records, uid)
	c.deleteLog = append(c.deleteLog, uid)

	return nil
}

// memEvent is one occurrence of a memRecord.
type memEvent struct {
	cal        *MemoryCalendar
	rec        *memRecord
	occurrence time.Time
}

func (e *memEvent) Title() string    { return e.rec.title }
func (e *memEvent) Start() time.Time { return e.occurrence }

func (e *memEvent) Series() (Series, bool) {
	if !e.rec.yearly {
		return nil, false
	}

	return &memSeries{cal: e.cal, uid: e.rec.uid}, true
}

func (e *memEvent) Delete(_ context.Context) error {
	if e.rec.yearly {
		return fmt.Errorf("calendar: %s is a series occurrence, delete the series", e.rec.uid)
	}

	return e.cal.deleteRecord(e.rec.uid)
}

// memSeries is the series handle for a yearly memRecord.
type memSeries struct {
	cal *MemoryCalendar
	uid string
}

func (s *memSeries) ID() string { return s.uid }

func (s *memSeries) DeleteAll(_ context.Context) error {
	return s.cal.deleteRecord(s.uid)
}

// Interface compliance checks.
var (
	_ Provider = (*MemoryProvider)(nil)
	_ Calendar = (*MemoryCalendar)(nil)
	_ Event    = (*memEvent)(nil)
	_ Series   = (*memSeries)(nil)
)
