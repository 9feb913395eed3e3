package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// View is the zoom level of the calendar.
type View string

const (
	ViewYear  View = "year"
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

// ErrUnknownView is returned for view names outside year/month/week/day.
var ErrUnknownView = errors.New("unknown calendar view")

// ParseView reads a view name, case-insensitively.
func ParseView(value string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(value))); v {
	case ViewYear, ViewMonth, ViewWeek, ViewDay:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, value)
	}
}

// Direction moves the anchor date.
type Direction string

const (
	Previous Direction = "previous"
	Next     Direction = "next"
	ToToday  Direction = "today"
)

// ErrUnknownDirection is returned for unsupported navigation directions.
var ErrUnknownDirection = errors.New("unknown navigation direction")

// ParseDirection reads a navigation direction.
func ParseDirection(value string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(value))); d {
	case Previous, Next, ToToday:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, value)
	}
}

// Range is an inclusive span of days.
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d lies within the range, bounds included.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days lists every day of the range in order.
func (r Range) Days() []Date {
	var days []Date
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Resolve maps a view and an anchor to the inclusive range the view shows.
func Resolve(view View, anchor Date, weekStart time.Weekday) Range {
	switch view {
	case ViewYear:
		return Range{
			Start: Date{Year: anchor.Year, Month: time.January, Day: 1},
			End:   Date{Year: anchor.Year, Month: time.December, Day: 31},
		}
	case ViewMonth:
		return MonthRange(anchor.Year, anchor.Month)
	case ViewWeek:
		start := StartOfWeek(anchor, weekStart)
		return Range{Start: start, End: start.AddDays(6)}
	default:
		return Range{Start: anchor, End: anchor}
	}
}

// MonthRange covers the first to the last day of a month.
func MonthRange(year int, month time.Month) Range {
	return Range{
		Start: Date{Year: year, Month: month, Day: 1},
		End:   Date{Year: year, Month: month, Day: DaysIn(year, month)},
	}
}

// StartOfWeek returns the first day of the week containing d.
func StartOfWeek(d Date, weekStart time.Weekday) Date {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-offset)
}

// Navigate shifts the anchor by one unit of the view. ToToday ignores the
// view and returns today.
func Navigate(view View, anchor Date, dir Direction, today Date) Date {
	step := 1
	switch dir {
	case ToToday:
		return today
	case Previous:
		step = -1
	}

	switch view {
	case ViewYear:
		return anchor.AddYears(step)
	case ViewMonth:
		return anchor.AddMonths(step)
	case ViewWeek:
		return anchor.AddDays(7 * step)
	default:
		return anchor.AddDays(step)
	}
}

// Title is the heading shown above the active view.
func Title(view View, anchor Date, weekStart time.Weekday) string {
	switch view {
	case ViewYear:
		return anchor.Format("2006")
	case ViewMonth:
		return anchor.Format("January 2006")
	case ViewWeek:
		r := Resolve(ViewWeek, anchor, weekStart)
		return fmt.Sprintf("%s - %s", r.Start.Format("Jan 2"), r.End.Format("Jan 2, 2006"))
	default:
		return anchor.Format("Monday, January 2, 2006")
	}
}

// ParseWeekday reads an English weekday name such as "sunday" or "Mon".
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if v == name || (len(v) >= 3 && strings.HasPrefix(name, v)) {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", value)
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth reads a YYYY-MM value.
func ParseMonth(value string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", value, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return Month{Year: d.Year, Month: d.Month}
}

// Range returns the days of the month.
func (m Month) Range() Range {
	return MonthRange(m.Year, m.Month)
}

// Previous returns the month before m.
func (m Month) Previous() Month {
	d := Date{Year: m.Year, Month: m.Month, Day: 1}.AddMonths(-1)
	return Month{Year: d.Year, Month: d.Month}
}

// Contains reports whether d falls in m.
func (m Month) Contains(d Date) bool {
	return d.Year == m.Year && d.Month == m.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Pretty formats the month as "July 2025".
func (m Month) Pretty() string {
	return Date{Year: m.Year, Month: m.Month, Day: 1}.Format("January 2006")
}
