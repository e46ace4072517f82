package feed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"riverside/internal/model"
)

// DefaultMaxOccurrences caps expansion so open-ended rules stay bounded.
const DefaultMaxOccurrences = 5000

// Recurrence is a parsed RRULE anchored at the event's date. Expansion is
// done on whole days in UTC; time-of-day plays no part in matching.
type Recurrence struct {
	rule   *rrule.RRule
	anchor model.Date
}

// ParseRecurrence parses ev.RRule. It returns nil and no error for events
// without a rule.
func ParseRecurrence(ev model.Event) (*Recurrence, error) {
	raw := strings.TrimSpace(ev.RRule)
	if raw == "" {
		return nil, nil
	}
	raw = strings.TrimPrefix(raw, "RRULE:")

	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", raw, err)
	}
	opt.Dtstart = ev.Date.Time(time.UTC)

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule %q: %w", raw, err)
	}
	return &Recurrence{rule: r, anchor: ev.Date}, nil
}

// OccursOn reports whether the rule yields an instance on d.
func (r *Recurrence) OccursOn(d model.Date) bool {
	if d.Before(r.anchor) {
		return false
	}
	start := d.Time(time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)
	return len(r.rule.Between(start, end, true)) > 0
}

// Between lists the instance dates in [from, to]. truncated is true when
// more than max instances exist (max <= 0 means DefaultMaxOccurrences).
func (r *Recurrence) Between(from, to model.Date, max int) (dates []model.Date, truncated bool, err error) {
	if to.Before(from) {
		return nil, false, errors.New("recurrence: range end is before start")
	}
	if max <= 0 {
		max = DefaultMaxOccurrences
	}

	start := from.Time(time.UTC)
	end := to.Time(time.UTC).Add(24*time.Hour - time.Nanosecond)
	times := r.rule.Between(start, end, true)
	if len(times) > max {
		times = times[:max]
		truncated = true
	}

	dates = make([]model.Date, 0, len(times))
	for _, t := range times {
		dates = append(dates, model.DateOf(t))
	}
	return dates, truncated, nil
}
