package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"riverside/internal/feed"
	appLog "riverside/internal/log"
	"riverside/internal/model"
)

// MaxRangeDays bounds Range queries.
const MaxRangeDays = 366

// ErrRangeTooLarge is returned by Range for windows longer than MaxRangeDays.
var ErrRangeTooLarge = errors.New("events: range exceeds 366 days")

type entry struct {
	event model.Event
	recur *feed.Recurrence
}

// Store is the in-memory event list. Order is insertion order and every
// lookup preserves it.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	version uint64 // bumped on every change
}

// NewStore returns a store holding events (in order).
func NewStore(events []model.Event) *Store {
	s := &Store{}
	s.Replace(events)
	return s
}

// Add appends ev. An empty id is filled with a random UUID. The stored
// event is returned.
func (s *Store) Add(ev model.Event) (model.Event, error) {
	if ev.ID == "" {
		ev.ID = model.EventID(uuid.NewString())
	}
	e, err := newEntry(ev)
	if err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	s.version++
	return ev, nil
}

// Remove deletes every event with the given id and reports whether any
// was removed.
func (s *Store) Remove(id model.EventID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := false
	for _, e := range s.entries {
		if e.event.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so dropped events can be collected.
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = entry{}
	}
	s.entries = kept
	if removed {
		s.version++
	}
	return removed
}

// Replace swaps the whole list. Empty ids are filled as in Add. Events with
// an unparsable recurrence rule are kept as single-day events and logged.
func (s *Store) Replace(events []model.Event) {
	entries := make([]entry, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = model.EventID(uuid.NewString())
		}
		e, err := newEntry(ev)
		if err != nil {
			appLog.Warn("ignoring invalid recurrence rule", "err", err, "id", ev.ID)
			e = entry{event: ev}
		}
		entries = append(entries, e)
	}

	s.mu.Lock()
	s.entries = entries
	s.version++
	s.mu.Unlock()
}

// All returns a copy of the list.
func (s *Store) All() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.event
	}
	return out
}

// Version changes whenever the list does. Callers use it to key caches.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ForDate returns the events occurring on d, in insertion order. The
// result is empty (not nil) when nothing matches.
func (s *Store) ForDate(d model.Date) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0)
	for _, e := range s.entries {
		if e.occursOn(d) {
			out = append(out, e.event)
		}
	}
	return out
}

// Range lists occurrences in [from, to], ordered by date and then by
// insertion order.
func (s *Store) Range(from, to model.Date) ([]model.Occurrence, error) {
	if to.Before(from) {
		return nil, errors.Errorf("events: range end %s is before start %s", to, from)
	}
	if from.DaysBetween(to) >= MaxRangeDays {
		return nil, ErrRangeTooLarge
	}

	out := make([]model.Occurrence, 0)
	for d := from; !d.After(to); d = d.AddDays(1) {
		for _, ev := range s.ForDate(d) {
			out = append(out, model.Occurrence{Date: d, Event: ev})
		}
	}
	return out, nil
}

func newEntry(ev model.Event) (entry, error) {
	r, err := feed.ParseRecurrence(ev)
	if err != nil {
		return entry{}, errors.Wrapf(err, "event %s", ev.ID)
	}
	return entry{event: ev, recur: r}, nil
}

func (e entry) occursOn(d model.Date) bool {
	if e.recur != nil {
		return e.recur.OccursOn(d)
	}
	return e.event.Date.Equal(d)
}
