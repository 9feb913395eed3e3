// Package calendarview lays out inventory entries on year, month, week and
// day grids.
package calendarview

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
)

// Lookup returns the first entry dated on target.
func Lookup(target calendar.Date, entries []models.InventoryEntry) (models.InventoryEntry, bool) {
	for _, e := range entries {
		if e.Date == target {
			return e, true
		}
	}
	return models.InventoryEntry{}, false
}

// EntrySummary is what a grid cell shows about its entry.
type EntrySummary struct {
	ID        int64           `json:"id"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Cell is one day of a grid.
type Cell struct {
	Date     calendar.Date `json:"date"`
	InMonth  bool          `json:"in_month"`
	Today    bool          `json:"today"`
	Selected bool          `json:"selected"`
	Summary  *EntrySummary `json:"entry,omitempty"`

	entry *models.InventoryEntry
}

// Entry returns the entry shown in the cell, if any.
func (c Cell) Entry() (models.InventoryEntry, bool) {
	if c.entry == nil {
		return models.InventoryEntry{}, false
	}
	return *c.entry, true
}

// Target is the clicked surface of a cell.
type Target string

const (
	TargetDay   Target = "day"
	TargetEntry Target = "entry"
)

// Selector receives clicks coming from the grids.
type Selector interface {
	SelectDate(d calendar.Date)
	EntryClick(e models.InventoryEntry)
}

// Click dispatches a click on the cell. A click on the entry surface only
// reaches EntryClick; the day selection handler does not see it.
func (c Cell) Click(target Target, s Selector) {
	if target == TargetEntry {
		if e, ok := c.Entry(); ok {
			s.EntryClick(e)
		}
		return
	}
	s.SelectDate(c.Date)
}

// MonthGrid is a month laid out in full weeks.
type MonthGrid struct {
	Month    string   `json:"month"`
	Name     string   `json:"name"`
	Weekdays []string `json:"weekdays"`
	Weeks    [][]Cell `json:"weeks"`
}

// YearGrid holds twelve month grids.
type YearGrid struct {
	Year   int         `json:"year"`
	Months []MonthGrid `json:"months"`
}

// WeekGrid holds seven day cards.
type WeekGrid struct {
	Days []Cell `json:"days"`
}

// DayDetail is the single-day view.
type DayDetail struct {
	Date  calendar.Date          `json:"date"`
	Label string                 `json:"label"`
	Entry *models.InventoryEntry `json:"entry,omitempty"`
}

// Rendered is the output of Render; exactly one of the grids is set.
type Rendered struct {
	View   calendar.View  `json:"view"`
	Anchor calendar.Date  `json:"anchor"`
	Range  calendar.Range `json:"range"`
	Title  string         `json:"title"`
	Year   *YearGrid      `json:"year,omitempty"`
	Month  *MonthGrid     `json:"month,omitempty"`
	Week   *WeekGrid      `json:"week,omitempty"`
	Day    *DayDetail     `json:"day,omitempty"`
}

// Cells returns every cell of the rendered view in display order.
func (r Rendered) Cells() []Cell {
	var out []Cell
	switch {
	case r.Year != nil:
		for _, m := range r.Year.Months {
			for _, w := range m.Weeks {
				out = append(out, w...)
			}
		}
	case r.Month != nil:
		for _, w := range r.Month.Weeks {
			out = append(out, w...)
		}
	case r.Week != nil:
		out = append(out, r.Week.Days...)
	}
	return out
}

// Renderer builds grids for a fixed week convention.
type Renderer struct {
	WeekStart time.Weekday
}

// Render lays out entries for the view around anchor.
func (r Renderer) Render(view calendar.View, anchor, today calendar.Date, entries []models.InventoryEntry) Rendered {
	out := Rendered{
		View:   view,
		Anchor: anchor,
		Range:  calendar.Resolve(view, anchor, r.WeekStart),
		Title:  calendar.Title(view, anchor, r.WeekStart),
	}

	switch view {
	case calendar.ViewYear:
		grid := YearGrid{Year: anchor.Year}
		for m := time.January; m <= time.December; m++ {
			grid.Months = append(grid.Months, r.monthGrid(anchor.Year, m, anchor, today, entries, false))
		}
		out.Year = &grid
	case calendar.ViewMonth:
		grid := r.monthGrid(anchor.Year, anchor.Month, anchor, today, entries, true)
		out.Month = &grid
	case calendar.ViewWeek:
		grid := WeekGrid{}
		for _, d := range out.Range.Days() {
			grid.Days = append(grid.Days, newCell(d, true, anchor, today, entries))
		}
		out.Week = &grid
	default:
		detail := DayDetail{Date: anchor, Label: anchor.Format("Monday, January 2, 2006")}
		if e, ok := Lookup(anchor, entries); ok {
			detail.Entry = &e
		}
		out.Day = &detail
	}
	return out
}

func (r Renderer) monthGrid(year int, month time.Month, anchor, today calendar.Date, entries []models.InventoryEntry, outsideEntries bool) MonthGrid {
	span := calendar.MonthRange(year, month)
	start := calendar.StartOfWeek(span.Start, r.WeekStart)
	end := calendar.StartOfWeek(span.End, r.WeekStart).AddDays(6)

	grid := MonthGrid{
		Month:    calendar.Month{Year: year, Month: month}.String(),
		Name:     month.String(),
		Weekdays: r.weekdayNames(),
	}

	var week []Cell
	for d := start; !d.After(end); d = d.AddDays(1) {
		inMonth := d.SameMonth(span.Start)
		cell := newCell(d, inMonth, anchor, today, entries)
		if !inMonth && !outsideEntries {
			cell.Summary, cell.entry = nil, nil
		}
		week = append(week, cell)
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}
	return grid
}

func (r Renderer) weekdayNames() []string {
	names := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		names = append(names, time.Weekday((int(r.WeekStart)+i)%7).String()[:3])
	}
	return names
}

func newCell(d calendar.Date, inMonth bool, anchor, today calendar.Date, entries []models.InventoryEntry) Cell {
	cell := Cell{
		Date:     d,
		InMonth:  inMonth,
		Today:    d == today,
		Selected: d == anchor,
	}
	if e, ok := Lookup(d, entries); ok {
		cell.entry = &e
		cell.Summary = &EntrySummary{ID: e.ID, ItemCount: len(e.Items), Total: e.Total}
	}
	return cell
}

// Span is the range of days a view displays. The month view includes the
// adjacent-month days that fill its first and last weeks.
func (r Renderer) Span(view calendar.View, anchor calendar.Date) calendar.Range {
	rng := calendar.Resolve(view, anchor, r.WeekStart)
	if view == calendar.ViewMonth {
		rng.Start = calendar.StartOfWeek(rng.Start, r.WeekStart)
		rng.End = calendar.StartOfWeek(rng.End, r.WeekStart).AddDays(6)
	}
	return rng
}

// CellFor builds the cell of a single day.
func CellFor(d calendar.Date, entries []models.InventoryEntry) Cell {
	return newCell(d, true, calendar.Date{}, calendar.Date{}, entries)
}
