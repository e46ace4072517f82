package feed

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "riverside/internal/log"
	"riverside/internal/model"
)

// ParseICS converts the VEVENTs of an iCalendar payload into calendar
// events dated in loc.
//
//   - UID becomes the event id (prefixed with the source id so ids from
//     different feeds cannot collide).
//   - DTSTART gives the date and "HH:MM" time; all-day events (VALUE=DATE)
//     have an empty time.
//   - RRULE is carried through unchanged; expansion happens at lookup.
//
// VEVENTs that cannot be read are logged and skipped.
func ParseICS(src Source, body []byte, loc *time.Location) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(src, ve, loc)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "err", perr, "id", src.ID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent, loc *time.Location) (model.Event, error) {
	var out model.Event
	out.Source = src.ID

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.ID = model.EventID(src.ID + ":" + uidProp.Value)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	allDay := !strings.Contains(dtStart.Value, "T")
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	if allDay {
		// DATE values carry no zone; take the calendar day as written.
		out.Date = model.DateOf(start)
	} else {
		local := start.In(loc)
		out.Date = model.DateOf(local)
		out.Time = local.Format("15:04")
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	return out, nil
}

// Export renders events as an iCalendar feed. Timed events become 1-hour
// entries in loc; events without a time are all-day.
func Export(name string, events []model.Event, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Riverside Academy//Events Calendar//EN")
	cal.SetXWRCalName(name)

	for _, ev := range events {
		uid := string(ev.ID)
		if ev.Source != "" && !strings.Contains(uid, ":") {
			uid = ev.Source + ":" + uid
		}
		vev := cal.AddEvent(uid + "@riverside-academy")
		vev.SetDtStampTime(now.UTC())
		vev.SetSummary(ev.Title)
		if ev.Description != "" {
			vev.SetDescription(ev.Description)
		}

		if h, m, ok := ev.Clock(); ok {
			start := time.Date(ev.Date.Year, ev.Date.Month, ev.Date.Day, h, m, 0, 0, loc)
			vev.SetStartAt(start)
			vev.SetEndAt(start.Add(time.Hour))
		} else {
			vev.SetAllDayStartAt(ev.Date.Time(loc))
			vev.SetAllDayEndAt(ev.Date.AddDays(1).Time(loc))
		}

		if ev.RRule != "" {
			vev.AddRrule(ev.RRule)
		}
	}

	return cal.Serialize()
}
