package dateparse

import (
	"errors"
	"testing"
	"time"
)

// fixedNow pins "the current year" for default-year tests.
func fixedNow() time.Time {
	return time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
}

func TestParse_DayMonthOnly(t *testing.T) {
	t.Parallel()

	d, err := Parse("04/07", fixedNow)
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}

	if d.Day != 4 {
		t.Errorf("Day = %d, want 4", d.Day)
	}

	if d.Month != time.July {
		t.Errorf("Month = %v, want July", d.Month)
	}

	if d.Year != 2024 {
		t.Errorf("Year = %d, want 2024 (current year default)", d.Year)
	}
}

func TestParse_FullDate(t *testing.T) {
	t.Parallel()

	d, err := Parse("03/07/1990", fixedNow)
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}

	if d.Day != 3 || d.Month != time.July || d.Year != 1990 {
		t.Errorf("got %+v, want 3 July 1990", d)
	}
}

func TestParse_DashSeparator(t *testing.T) {
	t.Parallel()

	d, err := Parse("29-02-2024", fixedNow)
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}

	if d.Day != 29 || d.Month != time.February || d.Year != 2024 {
		t.Errorf("got %+v, want 29 February 2024", d)
	}
}

func TestParse_LeapYearBoundary(t *testing.T) {
	t.Parallel()

	if _, err := Parse("29/02/2024", fixedNow); err != nil {
		t.Errorf("29/02/2024 should be valid, got %v", err)
	}

	if _, err := Parse("29/02/2023", fixedNow); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("29/02/2023 error = %v, want ErrInvalidDate", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"no separator", "15012024"},
		{"single part", "15/"},
		{"non-numeric day", "abc/07"},
		{"non-numeric month", "15/xyz"},
		{"non-numeric year", "15/07/year"},
		{"month zero", "15/00"},
		{"month thirteen", "15/13"},
		{"day zero", "00/07"},
		{"day overflow", "32/01"},
		{"february overflow", "31/02/2024"},
		{"april overflow", "31/04"},
		{"signed day", "-5/07"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse(tc.raw, fixedNow); !errors.Is(err, ErrInvalidDate) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidDate", tc.raw, err)
			}
		})
	}
}

func TestParse_TrimsInput(t *testing.T) {
	t.Parallel()

	d, err := Parse("  15/01  ", fixedNow)
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}

	if d.Day != 15 || d.Month != time.January {
		t.Errorf("got %+v, want 15 January", d)
	}
}

func TestDate_Midday(t *testing.T) {
	t.Parallel()

	d := Date{Day: 4, Month: time.July, Year: 2024}
	got := d.Midday(time.UTC)
	want := time.Date(2024, time.July, 4, 12, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("Midday() = %v, want %v", got, want)
	}
}

func TestDaysInMonth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		month time.Month
		year  int
		want  int
	}{
		{time.January, 2024, 31},
		{time.February, 2024, 29},
		{time.February, 2023, 28},
		{time.February, 2000, 29},
		{time.February, 1900, 28},
		{time.April, 2024, 30},
		{time.December, 2024, 31},
	}

	for _, tc := range cases {
		if got := daysInMonth(tc.month, tc.year); got != tc.want {
			t.Errorf("daysInMonth(%v, %d) = %d, want %d", tc.month, tc.year, got, tc.want)
		}
	}
}
