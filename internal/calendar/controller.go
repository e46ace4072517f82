package calendar

import (
	"riverside/internal/model"
)

// EventStore is the mutable event list behind a Controller.
type EventStore interface {
	EventLookup
	Add(ev model.Event) (model.Event, error)
	Remove(id model.EventID) bool
	Replace(events []model.Event)
}

// State is the calendar view state. A zero Selected means no selection.
type State struct {
	Current  model.Date // displayed month; the day is kept but not shown
	Focused  model.Date // the single focusable cell
	Selected model.Date
}

// HasSelection reports whether a day is selected.
func (s State) HasSelection() bool {
	return !s.Selected.IsZero()
}

// Frame is what a View draws on Render.
type Frame struct {
	Title string
	Grid  Grid
	State State
}

// EventLine is one event in the details dialog.
type EventLine struct {
	ID          model.EventID
	Title       string
	Time        string // 12-hour, e.g. "2:00 PM"
	Description string
}

// Details is the content of the event dialog for one day.
type Details struct {
	Date    model.Date
	Heading string
	Message string // set only for the empty state
	Events  []EventLine
}

// Empty reports whether the day has no events.
func (d Details) Empty() bool {
	return len(d.Events) == 0
}

// View draws controller output. Render replaces the whole container;
// Focus and Select only move the focus and selection markers.
type View interface {
	Render(f Frame)
	Focus(d model.Date)
	Select(d model.Date)
	ShowEvents(d Details)
	Announce(msg string)
}

// Controller is the calendar state machine. It is not safe for concurrent
// use; each widget instance owns one.
type Controller struct {
	store EventStore
	view  View
	today func() model.Date
	state State
}

// Option configures a Controller.
type Option func(*Controller)

// WithToday overrides the clock used for "today" and the initial state.
func WithToday(fn func() model.Date) Option {
	return func(c *Controller) {
		c.today = fn
	}
}

// WithState restores a previous view state (e.g. from a URL). A focused date
// outside the displayed month's window is pulled into it.
func WithState(s State) Option {
	return func(c *Controller) {
		if s.Current.IsZero() {
			return
		}
		c.state = s
		if c.state.Focused.IsZero() || !windowContains(c.state.Current, c.state.Focused) {
			c.state.Focused = clampToMonth(c.state.Current, c.state.Current.Day)
		}
	}
}

// New creates a controller showing today's month and renders it.
func New(store EventStore, view View, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		view:  view,
		today: func() model.Date { return model.Today(nil) },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.state.Current.IsZero() {
		t := c.today()
		c.state = State{Current: t, Focused: t}
	}
	c.render()
	return c
}

// State returns the current view state.
func (c *Controller) State() State {
	return c.state
}

// Grid recomputes the grid for the current state.
func (c *Controller) Grid() Grid {
	return BuildGrid(GridInput{
		Month:    c.state.Current,
		Today:    c.today(),
		Focused:  c.state.Focused,
		Selected: c.state.Selected,
		Events:   c.store,
	})
}

// PreviousMonth shows the month before the current one.
func (c *Controller) PreviousMonth() {
	c.shiftMonth(-1)
}

// NextMonth shows the month after the current one.
func (c *Controller) NextMonth() {
	c.shiftMonth(1)
}

func (c *Controller) shiftMonth(delta int) {
	c.state.Current = c.state.Current.AddMonths(delta)
	if !c.state.Focused.SameMonth(c.state.Current) {
		c.state.Focused = clampToMonth(c.state.Current, c.state.Focused.Day)
	}
	c.render()
	c.view.Announce("Showing " + MonthTitle(c.state.Current))
}

// FocusDate moves keyboard focus to d, switching months first when d is
// outside the displayed month.
func (c *Controller) FocusDate(d model.Date) {
	c.state.Focused = d
	if !d.SameMonth(c.state.Current) {
		c.state.Current = d
		c.render()
	}
	c.view.Focus(d)
}

// HandleKey applies a key press to the focused day. It returns false for
// keys the grid does not handle, whose default action must not be
// suppressed.
func (c *Controller) HandleKey(ev KeyEvent) bool {
	focused := c.state.Focused
	switch ev.Key {
	case KeyEnter, KeySpace:
		c.SelectDate(focused)
		c.ShowEventsForDate(focused)
		c.FocusDate(focused)
		return true
	}

	target, ok := Navigate(focused, ev)
	if !ok {
		return false
	}
	c.FocusDate(target)
	return true
}

// SelectDate marks d as the selected day.
func (c *Controller) SelectDate(d model.Date) {
	c.state.Selected = d
	c.view.Select(d)
}

// ShowEventsForDate opens the details dialog for d and announces the
// event count.
func (c *Controller) ShowEventsForDate(d model.Date) Details {
	evs := c.store.ForDate(d)
	det := Details{Date: d}

	if len(evs) == 0 {
		det.Heading = "No Events"
		det.Message = "No events scheduled for " + LongDate(d) + "."
	} else {
		det.Heading = "Events for " + LongDate(d)
		det.Events = make([]EventLine, 0, len(evs))
		for _, ev := range evs {
			det.Events = append(det.Events, EventLine{
				ID:          ev.ID,
				Title:       ev.Title,
				Time:        FormatTime12(ev.Time),
				Description: ev.Description,
			})
		}
	}

	c.view.ShowEvents(det)
	c.view.Announce(CountSummary(d, len(evs)))
	return det
}

// AddEvent stores ev and re-renders.
func (c *Controller) AddEvent(ev model.Event) (model.Event, error) {
	stored, err := c.store.Add(ev)
	if err != nil {
		return model.Event{}, err
	}
	c.render()
	return stored, nil
}

// RemoveEvent deletes events with id and re-renders.
func (c *Controller) RemoveEvent(id model.EventID) bool {
	removed := c.store.Remove(id)
	c.render()
	return removed
}

// ReplaceEvents swaps the event list and re-renders.
func (c *Controller) ReplaceEvents(events []model.Event) {
	c.store.Replace(events)
	c.render()
}

// render regenerates the whole view. Fine at this size; a larger widget
// would patch only the changed cells.
func (c *Controller) render() {
	c.view.Render(Frame{
		Title: MonthTitle(c.state.Current),
		Grid:  c.Grid(),
		State: c.state,
	})
}

func clampToMonth(month model.Date, day int) model.Date {
	if last := model.DaysIn(month.Year, month.Month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return model.Date{Year: month.Year, Month: month.Month, Day: day}
}
