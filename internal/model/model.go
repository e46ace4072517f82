package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventID identifies an event. Feeds carry it as either a JSON number or a
// JSON string; it is always kept as a string.
type EventID string

func (id *EventID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EventID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("event id must be a number or string: %w", err)
	}
	*id = EventID(n.String())
	return nil
}

// Event is a single calendar entry as shown in the events calendar.
type Event struct {
	ID          EventID `json:"id"`
	Date        Date    `json:"date"`
	Time        string  `json:"time"` // "HH:MM", 24-hour
	Title       string  `json:"title"`
	Description string  `json:"description"`

	// RRule is an optional RFC 5545 recurrence rule anchored at Date,
	// e.g. "FREQ=WEEKLY;COUNT=4".
	RRule string `json:"rrule,omitempty"`

	// Source records where the event came from ("json", "sample", "api" or
	// an ICS source id).
	Source string `json:"source,omitempty"`
}

// Clock splits Time into hour and minute. ok is false when Time is not a
// valid "HH:MM" value.
func (e Event) Clock() (hour, minute int, ok bool) {
	return ParseClock(e.Time)
}

// ParseClock parses "HH:MM" (24-hour).
func ParseClock(s string) (hour, minute int, ok bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// Occurrence is one dated instance of an event; for non-recurring events
// Date equals Event.Date.
type Occurrence struct {
	Date  Date  `json:"date"`
	Event Event `json:"event"`
}
