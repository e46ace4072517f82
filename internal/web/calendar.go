package web

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"riverside/internal/calendar"
	appLog "riverside/internal/log"
	"riverside/internal/model"
)

// calendarRequest is the widget state carried in the query string, plus
// the user action to apply to it.
type calendarRequest struct {
	state  calendar.State
	action string // prev, next, show
	key    calendar.KeyEvent
	hasKey bool
}

// parseCalendarQuery reads month=YYYY-MM, focus, selected (YYYY-MM-DD),
// action and key/shift. Malformed values are ignored.
func parseCalendarQuery(q url.Values, today model.Date) calendarRequest {
	var req calendarRequest

	focus, _ := model.ParseDate(q.Get("focus"))
	selected, _ := model.ParseDate(q.Get("selected"))
	month, hasMonth := parseMonth(q.Get("month"))

	switch {
	case hasMonth && !focus.IsZero() && focus.SameMonth(month):
		req.state.Current = focus
	case hasMonth:
		req.state.Current = month
	case !focus.IsZero():
		req.state.Current = focus
	default:
		req.state.Current = today
	}
	req.state.Focused = focus
	if req.state.Focused.IsZero() {
		if req.state.Current.SameMonth(today) {
			req.state.Focused = today
		} else {
			req.state.Focused = req.state.Current.FirstOfMonth()
		}
	}
	req.state.Selected = selected

	req.action = strings.ToLower(strings.TrimSpace(q.Get("action")))
	if name := q.Get("key"); name != "" {
		k := calendar.ParseKey(name)
		shift := q.Get("shift") == "1" || strings.EqualFold(q.Get("shift"), "true")
		req.key = calendar.KeyEvent{Key: k, Shift: shift}
		req.hasKey = true
	}
	return req
}

func parseMonth(s string) (model.Date, bool) {
	if s == "" {
		return model.Date{}, false
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return model.Date{}, false
	}
	return model.NewDate(t.Year(), t.Month(), 1), true
}

// calendarResult is a controller after the request's action ran.
type calendarResult struct {
	ctrl    *calendar.Controller
	view    *calendar.HTMLView
	handled bool
}

func (s *Server) runCalendar(q url.Values) calendarResult {
	today := s.today()
	req := parseCalendarQuery(q, today)

	view := calendar.NewHTMLView()
	ctrl := calendar.New(s.deps.Events, view,
		calendar.WithToday(func() model.Date { return today }),
		calendar.WithState(req.state),
	)

	res := calendarResult{ctrl: ctrl, view: view, handled: true}
	switch req.action {
	case "prev":
		ctrl.PreviousMonth()
	case "next":
		ctrl.NextMonth()
	case "show":
		d := ctrl.State().Focused
		if !req.state.Selected.IsZero() {
			d = req.state.Selected
		}
		ctrl.FocusDate(d)
		ctrl.SelectDate(d)
		ctrl.ShowEventsForDate(d)
	case "":
		res.handled = false
	}
	if req.hasKey {
		res.handled = ctrl.HandleKey(req.key)
	}
	return res
}

var calendarPageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Events Calendar - Riverside Academy</title>
  <link rel="stylesheet" href="/css/styles.css">
  <link rel="manifest" href="/manifest.webmanifest">
</head>
<body>
  <main class="container">
    <h1>Events Calendar</h1>
    <div id="calendar" class="calendar-container" data-endpoint="/calendar">
{{.Calendar}}
    </div>
  </main>
  <script src="/js/main.js" defer></script>
</body>
</html>
`))

// handleCalendarPage renders the calendar widget. With fragment=1 only the
// container markup is returned, for the page script to swap in.
//
// GET /calendar?month=2024-03&focus=2024-03-05&key=ArrowRight
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := s.runCalendar(q)

	markup, err := res.view.HTML()
	if err != nil {
		appLog.Error("calendar render failed", err)
		http.Error(w, "failed to render calendar", http.StatusInternalServerError)
		return
	}

	st := res.ctrl.State()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Calendar-Focus", st.Focused.String())
	w.Header().Set("X-Calendar-Month", fmt.Sprintf("%04d-%02d", st.Current.Year, st.Current.Month))
	if !res.handled {
		w.Header().Set("X-Calendar-Handled", "false")
	}

	if q.Get("fragment") == "1" {
		_, _ = w.Write([]byte(markup))
		return
	}
	if err := calendarPageTmpl.Execute(w, struct{ Calendar template.HTML }{markup}); err != nil {
		appLog.Error("calendar page write failed", err)
	}
}

type cellDTO struct {
	Date       model.Date `json:"date"`
	Day        int        `json:"day"`
	OtherMonth bool       `json:"other_month"`
	Today      bool       `json:"today"`
	HasEvents  bool       `json:"has_events"`
	EventCount int        `json:"event_count"`
	Focused    bool       `json:"focused"`
	Selected   bool       `json:"selected"`
	Label      string     `json:"label"`
}

type eventLineDTO struct {
	ID          model.EventID `json:"id"`
	Title       string        `json:"title"`
	Time        string        `json:"time"`
	Description string        `json:"description"`
}

type detailsDTO struct {
	Date    model.Date     `json:"date"`
	Heading string         `json:"heading"`
	Message string         `json:"message,omitempty"`
	Events  []eventLineDTO `json:"events"`
}

type calendarResponse struct {
	Title         string      `json:"title"`
	Month         string      `json:"month"`
	Focused       model.Date  `json:"focused"`
	Selected      *model.Date `json:"selected,omitempty"`
	DayNames      []string    `json:"day_names"`
	Cells         []cellDTO   `json:"cells"`
	Details       *detailsDTO `json:"details,omitempty"`
	Announcements []string    `json:"announcements"`
	Handled       bool        `json:"handled"`
}

func newDetailsDTO(d calendar.Details) *detailsDTO {
	out := &detailsDTO{
		Date:    d.Date,
		Heading: d.Heading,
		Message: d.Message,
		Events:  make([]eventLineDTO, 0, len(d.Events)),
	}
	for _, e := range d.Events {
		out.Events = append(out.Events, eventLineDTO(e))
	}
	return out
}

// handleCalendarAPI returns the same widget state as JSON.
func (s *Server) handleCalendarAPI(w http.ResponseWriter, r *http.Request) {
	res := s.runCalendar(r.URL.Query())
	f := res.view.Frame()

	resp := calendarResponse{
		Title:         f.Title,
		Month:         fmt.Sprintf("%04d-%02d", f.State.Current.Year, f.State.Current.Month),
		Focused:       f.State.Focused,
		DayNames:      calendar.DayNames[:],
		Cells:         make([]cellDTO, 0, calendar.GridCells),
		Announcements: res.view.Announcements(),
		Handled:       res.handled,
	}
	if f.State.HasSelection() {
		sel := f.State.Selected
		resp.Selected = &sel
	}
	if resp.Announcements == nil {
		resp.Announcements = []string{}
	}
	for _, c := range f.Grid.Cells {
		resp.Cells = append(resp.Cells, cellDTO{
			Date:       c.Date,
			Day:        c.Date.Day,
			OtherMonth: c.OtherMonth,
			Today:      c.Today,
			HasEvents:  c.HasEvents,
			EventCount: c.EventCount,
			Focused:    c.Focused,
			Selected:   c.Selected,
			Label:      calendar.AriaLabel(c),
		})
	}
	if d := res.view.Details(); d != nil {
		resp.Details = newDetailsDTO(*d)
	}
	writeJSON(w, http.StatusOK, resp)
}
