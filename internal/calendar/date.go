package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire layout of a calendar day.
const DateLayout = "2006-01-02"

// Date is a calendar day without time-of-day or zone. Every day comparison in
// the dashboard goes through this type.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes the given fields the way time.Date does, so 2025-02-30
// becomes 2025-03-02.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the wall-clock day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current day in loc.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

// ParseDate reads a YYYY-MM-DD value. Longer ISO strings are cut to their
// date part, so the day is the one written in the string whatever the offset.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if len(value) > len(DateLayout) {
		value = value[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals; it panics on bad input.
func MustParseDate(value string) Date {
	d, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Format formats the day with a time layout.
func (d Date) Format(layout string) string {
	return d.Time().Format(layout)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays shifts the day by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonths shifts by n months keeping the day of month, clamped to the
// length of the target month.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// AddYears shifts by n years; Feb 29 becomes Feb 28 in common years.
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// SameMonth reports whether both days fall in the same month of the same year.
func (d Date) SameMonth(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// MonthKey is the YYYY-MM prefix of the day.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// MarshalText implements encoding.TextMarshaler so Date travels as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
