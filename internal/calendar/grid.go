package calendar

import (
	"time"

	"riverside/internal/model"
)

const (
	// GridColumns is one column per weekday, Sunday first.
	GridColumns = 7
	// GridCells is six full weeks; every month fits, so the grid never
	// changes size between months.
	GridCells = 6 * GridColumns
)

// EventLookup returns the events on a date in insertion order.
type EventLookup interface {
	ForDate(d model.Date) []model.Event
}

// Cell describes one day of the month grid.
type Cell struct {
	Date       model.Date
	OtherMonth bool
	Today      bool
	HasEvents  bool
	EventCount int
	Focused    bool
	Selected   bool
}

// Grid is the 42-day window shown for one month.
type Grid struct {
	Year  int
	Month time.Month
	Cells [GridCells]Cell
}

// GridInput is everything BuildGrid needs. A zero Selected means nothing
// is selected.
type GridInput struct {
	Month    model.Date // any day of the displayed month
	Today    model.Date
	Focused  model.Date
	Selected model.Date
	Events   EventLookup
}

// GridStart returns the Sunday on or before the first of month's month.
func GridStart(month model.Date) model.Date {
	first := month.FirstOfMonth()
	return first.AddDays(-int(first.Weekday()))
}

// BuildGrid computes the month grid. It has no side effects and is cheap
// enough to call on every key press.
func BuildGrid(in GridInput) Grid {
	g := Grid{Year: in.Month.Year, Month: in.Month.Month}
	start := GridStart(in.Month)
	hasSelected := !in.Selected.IsZero()

	for i := range g.Cells {
		d := start.AddDays(i)
		c := Cell{
			Date:       d,
			OtherMonth: !d.SameMonth(in.Month),
			Today:      d.Equal(in.Today),
			Focused:    d.Equal(in.Focused),
			Selected:   hasSelected && d.Equal(in.Selected),
		}
		if in.Events != nil {
			c.EventCount = len(in.Events.ForDate(d))
			c.HasEvents = c.EventCount > 0
		}
		g.Cells[i] = c
	}
	return g
}

// Start returns the first date in the grid.
func (g Grid) Start() model.Date {
	return g.Cells[0].Date
}

// End returns the last date in the grid.
func (g Grid) End() model.Date {
	return g.Cells[GridCells-1].Date
}

// Contains reports whether d is one of the grid's 42 days.
func (g Grid) Contains(d model.Date) bool {
	return !d.Before(g.Start()) && !d.After(g.End())
}

// Index returns the cell index of d, or -1.
func (g Grid) Index(d model.Date) int {
	if !g.Contains(d) {
		return -1
	}
	return g.Start().DaysBetween(d)
}

// Weeks splits the cells into rows of seven.
func (g Grid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, GridCells/GridColumns)
	for i := 0; i < GridCells; i += GridColumns {
		weeks = append(weeks, g.Cells[i:i+GridColumns])
	}
	return weeks
}

// windowContains reports whether d lies in the grid window of month
// without computing the whole grid.
func windowContains(month, d model.Date) bool {
	start := GridStart(month)
	return !d.Before(start) && !d.After(start.AddDays(GridCells-1))
}
