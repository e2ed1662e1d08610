package calendar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// yearlyRule is the recurrence rule attached to every series this tool
// creates: one occurrence per year, forever.
const yearlyRule = "FREQ=YEARLY"

// FileProvider resolves calendar identifiers to ICS files in a directory:
// calendar "birthdays" lives at <dir>/birthdays.ics. The file must exist
// before any reconciliation touches it — a typo in the calendar id must
// never cause a fresh calendar to be silently created and "wiped".
type FileProvider struct {
	dir    string
	logger *slog.Logger
}

// NewFileProvider creates a FileProvider rooted at dir.
func NewFileProvider(dir string, logger *slog.Logger) *FileProvider {
	return &FileProvider{dir: dir, logger: logger}
}

// Calendar loads the ICS file for id. Returns ErrCalendarNotFound if the
// file does not exist.
func (p *FileProvider) Calendar(_ context.Context, id string) (Calendar, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty calendar id", ErrCalendarNotFound)
	}

	path := filepath.Join(p.dir, id+".ics")

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCalendarNotFound, path)
		}

		return nil, fmt.Errorf("calendar: resolving calendar %q: %w", id, err)
	}

	cal := &FileCalendar{
		path:   path,
		series: make(map[string]*icsRecord),
		logger: p.logger,
	}

	if err := cal.load(); err != nil {
		return nil, err
	}

	return cal, nil
}

// icsRecord is the in-memory form of one VEVENT: a yearly series when
// yearly is set, otherwise a standalone event (typically added by hand in
// another client).
type icsRecord struct {
	uid    string
	title  string
	start  time.Time
	yearly bool
}

// FileCalendar is a Calendar stored as a single ICS file. Mutations
// rewrite the file atomically. Safe for concurrent use.
type FileCalendar struct {
	mu     sync.Mutex
	path   string
	series map[string]*icsRecord
	logger *slog.Logger
}

// load parses the ICS file into the series map. Malformed VEVENTs are
// logged and skipped so one bad entry never hides the rest.
func (c *FileCalendar) load() error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("calendar: opening %s: %w", c.path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("calendar: stat %s: %w", c.path, err)
	}

	// A zero-byte file is a freshly provisioned calendar with no events.
	if fi.Size() == 0 {
		return nil
	}

	parsed, err := ical.ParseCalendar(f)
	if err != nil {
		return fmt.Errorf("calendar: parsing %s: %w", c.path, err)
	}

	for _, ve := range parsed.Events() {
		uid := ve.Id()
		if uid == "" {
			c.logger.Warn("skipping VEVENT without UID", slog.String("path", c.path))
			continue
		}

		start, startErr := ve.GetStartAt()
		if startErr != nil {
			c.logger.Warn("skipping VEVENT with unparseable DTSTART",
				slog.String("uid", uid), slog.String("error", startErr.Error()))

			continue
		}

		rec := &icsRecord{uid: uid, start: start}

		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			rec.title = p.Value
		}

		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
			rec.yearly = true
		}

		c.series[uid] = rec
	}

	return nil
}

// save serializes the series map back to the ICS file via a temp file and
// rename, so readers never observe a half-written calendar.
func (c *FileCalendar) save() error {
	out := ical.NewCalendar()
	out.SetMethod(ical.MethodPublish)

	// Stable output order keeps the file diffable across runs.
	uids := make([]string, 0, len(c.series))
	for uid := range c.series {
		uids = append(uids, uid)
	}

	sort.Strings(uids)

	for _, uid := range uids {
		rec := c.series[uid]

		ve := out.AddEvent(rec.uid)
		ve.SetDtStampTime(time.Now().UTC())
		ve.SetSummary(rec.title)
		ve.SetAllDayStartAt(rec.start)
		ve.SetAllDayEndAt(rec.start.AddDate(0, 0, 1))

		if rec.yearly {
			ve.AddRrule(yearlyRule)
		}
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(out.Serialize()), 0o644); err != nil {
		return fmt.Errorf("calendar: writing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("calendar: replacing %s: %w", c.path, err)
	}

	return nil
}

// Events expands every series into its occurrences within [start, end)
// and returns them together with in-range standalone events, ordered by
// start time then UID.
func (c *FileCalendar) Events(_ context.Context, start, end time.Time) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var events []Event

	for _, rec := range c.series {
		if !rec.yearly {
			if !rec.start.Before(start) && rec.start.Before(end) {
				events = append(events, &fileEvent{cal: c, rec: rec, occurrence: rec.start})
			}

			continue
		}

		rule, err := rrule.NewRRule(rrule.ROption{Freq: rrule.YEARLY, Dtstart: rec.start})
		if err != nil {
			c.logger.Warn("skipping series with bad recurrence",
				slog.String("uid", rec.uid), slog.String("error", err.Error()))

			continue
		}

		for _, occ := range rule.Between(start, end, true) {
			if !occ.Before(end) {
				continue
			}

			events = append(events, &fileEvent{cal: c, rec: rec, occurrence: occ})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		ei, ej := events[i].(*fileEvent), events[j].(*fileEvent)
		if !ei.occurrence.Equal(ej.occurrence) {
			return ei.occurrence.Before(ej.occurrence)
		}

		return ei.rec.uid < ej.rec.uid
	})

	return events, nil
}

// CreateYearly adds a new yearly all-day series starting on the day of
// start and persists the calendar.
func (c *FileCalendar) CreateYearly(_ context.Context, title string, start time.Time) (Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := &icsRecord{
		uid:    uuid.NewString(),
		title:  title,
		start:  start,
		yearly: true,
	}

	c.series[rec.uid] = rec

	if err := c.save(); err != nil {
		delete(c.series, rec.uid)
		return nil, err
	}

	return &fileSeries{cal: c, uid: rec.uid}, nil
}

// deleteRecord removes uid from the map and persists. Caller describes
// what was deleted for the error message.
func (c *FileCalendar) deleteRecord(uid, kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.series[uid]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrEventGone, kind, uid)
	}

	delete(c.series, uid)

	if err := c.save(); err != nil {
		c.series[uid] = rec
		return err
	}

	return nil
}

// fileEvent is one occurrence of an icsRecord.
type fileEvent struct {
	cal        *FileCalendar
	rec        *icsRecord
	occurrence time.Time
}

func (e *fileEvent) Title() string    { return e.rec.title }
func (e *fileEvent) Start() time.Time { return e.occurrence }

func (e *fileEvent) Series() (Series, bool) {
	if !e.rec.yearly {
		return nil, false
	}

	return &fileSeries{cal: e.cal, uid: e.rec.uid}, true
}

func (e *fileEvent) Delete(_ context.Context) error {
	if e.rec.yearly {
		return fmt.Errorf("calendar: %s is a series occurrence, delete the series", e.rec.uid)
	}

	return e.cal.deleteRecord(e.rec.uid, "event")
}

// fileSeries is the series handle for a yearly icsRecord.
type fileSeries struct {
	cal *FileCalendar
	uid string
}

func (s *fileSeries) ID() string { return s.uid }

func (s *fileSeries) DeleteAll(_ context.Context) error {
	return s.cal.deleteRecord(s.uid, "series")
}

// Interface compliance checks.
var (
	_ Provider = (*FileProvider)(nil)
	_ Calendar = (*FileCalendar)(nil)
	_ Event    = (*fileEvent)(nil)
	_ Series   = (*fileSeries)(nil)
)
