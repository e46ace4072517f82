package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"riverside/internal/calendar"
	"riverside/internal/events"
	"riverside/internal/feed"
	appLog "riverside/internal/log"
	"riverside/internal/model"
)

// icsCache holds the last /events.ics body for one store version.
type icsCache struct {
	version   uint64
	body      string
	updatedAt time.Time
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
	Count  int           `json:"count"`
}

type rangeResponse struct {
	From        model.Date         `json:"from"`
	To          model.Date         `json:"to"`
	Occurrences []model.Occurrence `json:"occurrences"`
}

// handleListEvents returns the event list, or dated occurrences when a
// window is given.
//
// GET /api/events
// GET /api/events?from=2024-03-01&to=2024-03-31
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		evs := s.deps.Events.All()
		writeJSON(w, http.StatusOK, eventsResponse{Events: evs, Count: len(evs)})
		return
	}

	from, err := model.ParseDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := model.ParseDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	occ, err := s.deps.Events.Range(from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rangeResponse{From: from, To: to, Occurrences: occ})
}

// handleEventsForDay returns the details dialog content for one date.
//
// GET /api/events/day?date=2024-03-05
func (s *Server) handleEventsForDay(w http.ResponseWriter, r *http.Request) {
	d, err := model.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	today := s.today()
	view := calendar.NewHTMLView()
	ctrl := calendar.New(s.deps.Events, view,
		calendar.WithToday(func() model.Date { return today }),
		calendar.WithState(calendar.State{Current: d, Focused: d}),
	)
	det := ctrl.ShowEventsForDate(d)

	type dayResponse struct {
		detailsDTO
		Summary string `json:"summary"`
	}
	writeJSON(w, http.StatusOK, dayResponse{
		detailsDTO: *newDetailsDTO(det),
		Summary:    calendar.CountSummary(d, len(det.Events)),
	})
}

// validateEvent checks an event posted to the API.
func validateEvent(ev model.Event) map[string]string {
	fields := map[string]string{}
	if ev.Date.IsZero() {
		fields["date"] = "This field is required"
	}
	if strings.TrimSpace(ev.Title) == "" {
		fields["title"] = "This field is required"
	}
	if ev.Time != "" {
		if _, _, ok := ev.Clock(); !ok {
			fields["time"] = "Time must be HH:MM (24-hour)"
		}
	}
	return fields
}

// eventController builds a calendar controller on the month of d. Event
// changes go through it so they take the same store-then-render path as the
// widget; the page itself is rendered fresh on the next request.
func (s *Server) eventController(d model.Date) *calendar.Controller {
	today := s.today()
	if d.IsZero() {
		d = today
	}
	return calendar.New(s.deps.Events, calendar.NewHTMLView(),
		calendar.WithToday(func() model.Date { return today }),
		calendar.WithState(calendar.State{Current: d, Focused: d}),
	)
}

// handleAddEvent appends one event.
//
// POST /api/events {"date":"2024-03-05","time":"14:00","title":"Orientation"}
func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := decodeBody(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event: "+err.Error())
		return
	}
	if fields := validateEvent(ev); len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	if ev.Source == "" {
		ev.Source = "api"
	}

	stored, err := s.eventController(ev.Date).AddEvent(ev)
	if err != nil {
		writeFieldErrors(w, map[string]string{"rrule": err.Error()})
		return
	}
	appLog.Info("event added", "id", stored.ID, "date", stored.Date.String())
	writeJSON(w, http.StatusCreated, stored)
}

// handleReplaceEvents swaps the whole list.
//
// PUT /api/events [{...}, {...}]
func (s *Server) handleReplaceEvents(w http.ResponseWriter, r *http.Request) {
	var evs []model.Event
	if err := decodeBody(w, r, &evs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event list: "+err.Error())
		return
	}
	for i, ev := range evs {
		if fields := validateEvent(ev); len(fields) > 0 {
			prefixed := make(map[string]string, len(fields))
			for k, v := range fields {
				prefixed[fmt.Sprintf("%d.%s", i, k)] = v
			}
			writeFieldErrors(w, prefixed)
			return
		}
		if ev.Source == "" {
			evs[i].Source = "api"
		}
	}

	var month model.Date
	if len(evs) > 0 {
		month = evs[0].Date
	}
	s.eventController(month).ReplaceEvents(evs)
	appLog.Info("events replaced", "count", len(evs))
	writeJSON(w, http.StatusOK, eventsResponse{Events: s.deps.Events.All(), Count: s.deps.Events.Len()})
}

// handleRemoveEvent deletes every event with the id.
//
// DELETE /api/events/{id}
func (s *Server) handleRemoveEvent(w http.ResponseWriter, r *http.Request) {
	id := model.EventID(r.PathValue("id"))
	if !s.eventController(model.Date{}).RemoveEvent(id) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	appLog.Info("event removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleRefreshEvents reloads the event feeds now.
//
// POST /api/events/refresh
func (s *Server) handleRefreshEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Loader == nil {
		writeError(w, http.StatusServiceUnavailable, "no event loader configured")
		return
	}
	res := s.deps.Loader.Refresh(r.Context(), s.deps.Events)

	type refreshResponse struct {
		Origin   string `json:"origin"`
		Count    int    `json:"count"`
		Fallback string `json:"fallback_reason,omitempty"`
	}
	resp := refreshResponse{Origin: res.Origin, Count: len(res.Events)}
	if res.FallbackReason != nil {
		resp.Fallback = res.FallbackReason.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleICSExport publishes the event list as an iCalendar feed.
//
// GET /events.ics
func (s *Server) handleICSExport(w http.ResponseWriter, r *http.Request) {
	const icsCacheTTL = 5 * time.Minute
	version := s.deps.Events.Version()
	now := s.deps.Now()

	s.icsMu.RLock()
	c := s.icsCache
	s.icsMu.RUnlock()

	var body string
	if c != nil && c.version == version && now.Sub(c.updatedAt) < icsCacheTTL {
		body = c.body
	} else {
		body = feed.Export("Riverside Academy Events", s.deps.Events.All(), s.loc, now)
		s.icsMu.Lock()
		s.icsCache = &icsCache{version: version, body: body, updatedAt: now}
		s.icsMu.Unlock()
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="riverside-events.ics"`)
	_, _ = w.Write([]byte(body))
}

var _ calendar.EventStore = (*events.Store)(nil)
