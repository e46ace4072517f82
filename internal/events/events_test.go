package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"riverside/internal/feed"
	"riverside/internal/model"
)

func TestForDatePreservesInsertionOrder(t *testing.T) {
	d := model.NewDate(2024, 3, 5)
	s := NewStore([]model.Event{
		{ID: "b", Date: d, Title: "Second"},
		{ID: "x", Date: model.NewDate(2024, 3, 6), Title: "Other day"},
		{ID: "a", Date: d, Title: "Third"},
	})
	if _, err := s.Add(model.Event{ID: "c", Date: d, Title: "Fourth"}); err != nil {
		t.Fatal(err)
	}

	got := s.ForDate(d)
	want := []model.EventID{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("event %d = %s; want %s", i, got[i].ID, want[i])
		}
	}

	empty := s.ForDate(model.NewDate(2030, 1, 1))
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestAddAssignsIDAndRemove(t *testing.T) {
	s := NewStore(nil)
	ev, err := s.Add(model.Event{Date: model.NewDate(2024, 3, 5), Title: "Walk-in"})
	if err != nil {
		t.Fatal(err)
	}
	if ev.ID == "" {
		t.Fatal("expected generated id")
	}
	if !s.Remove(ev.ID) {
		t.Fatal("Remove returned false")
	}
	if s.Remove(ev.ID) {
		t.Fatal("second Remove returned true")
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d", s.Len())
	}
}

func TestVersionChangesOnMutation(t *testing.T) {
	s := NewStore(nil)
	v0 := s.Version()
	ev, _ := s.Add(model.Event{Date: model.NewDate(2024, 3, 5), Title: "x"})
	v1 := s.Version()
	if v1 == v0 {
		t.Fatal("Add did not change version")
	}
	if s.Remove("missing"); s.Version() != v1 {
		t.Error("no-op Remove changed version")
	}
	s.Remove(ev.ID)
	if s.Version() == v1 {
		t.Error("Remove did not change version")
	}
}

func TestAddRejectsBadRule(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.Add(model.Event{ID: "r", Date: model.NewDate(2024, 3, 5), RRule: "FREQ=NEVER"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecurringEventsAndRange(t *testing.T) {
	s := NewStore([]model.Event{
		{ID: "club", Date: model.NewDate(2024, 3, 4), Title: "Chess", RRule: "FREQ=WEEKLY;COUNT=3"},
		{ID: "fair", Date: model.NewDate(2024, 3, 11), Title: "Fair"},
	})

	on11 := s.ForDate(model.NewDate(2024, 3, 11))
	if len(on11) != 2 || on11[0].ID != "club" || on11[1].ID != "fair" {
		t.Fatalf("ForDate(11) = %+v", on11)
	}

	occ, err := s.Range(model.NewDate(2024, 3, 1), model.NewDate(2024, 3, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(occ) != 4 {
		t.Fatalf("got %d occurrences, want 4", len(occ))
	}
	if !occ[3].Date.Equal(model.NewDate(2024, 3, 18)) {
		t.Errorf("last occurrence on %v", occ[3].Date)
	}

	if _, err := s.Range(model.NewDate(2024, 1, 1), model.NewDate(2025, 6, 1)); !errors.Is(err, ErrRangeTooLarge) {
		t.Errorf("err = %v", err)
	}
}

func TestSampleIsRelativeToToday(t *testing.T) {
	evs := Sample(model.NewDate(2024, 11, 20))
	if len(evs) != 8 {
		t.Fatalf("got %d sample events", len(evs))
	}
	if !evs[0].Date.Equal(model.NewDate(2024, 11, 5)) {
		t.Errorf("first sample on %v", evs[0].Date)
	}
	// Two months ahead rolls into the next year.
	if !evs[7].Date.Equal(model.NewDate(2025, 1, 20)) {
		t.Errorf("last sample on %v", evs[7].Date)
	}
}

func TestLoaderFallsBackToSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := &Loader{
		EventsURL: srv.URL + "/events.json",
		Location:  time.UTC,
		Now:       func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
	res := l.Load(context.Background())
	if res.Origin != OriginSample || res.FallbackReason == nil {
		t.Fatalf("origin=%s reason=%v", res.Origin, res.FallbackReason)
	}
	if len(res.Events) != 8 || res.Events[0].Source != OriginSample {
		t.Fatalf("unexpected events: %+v", res.Events)
	}
}

func TestLoaderFallsBackOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	l := &Loader{EventsURL: url, Location: time.UTC}
	if res := l.Load(context.Background()); res.Origin != OriginSample {
		t.Fatalf("origin = %s", res.Origin)
	}
}

func TestLoaderCachedFeedStatusErrorUsesSample(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1, "date": "2024-03-05", "title": "Orientation"}]`))
	}))
	defer srv.Close()

	l := &Loader{
		Fetcher:   feed.NewFetcher(t.TempDir()),
		EventsURL: srv.URL + "/events.json",
		Location:  time.UTC,
		Now:       func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
	if res := l.Load(context.Background()); res.Origin != OriginJSON || len(res.Events) != 1 {
		t.Fatalf("first load: origin=%s n=%d", res.Origin, len(res.Events))
	}

	fail.Store(true)
	res := l.Load(context.Background())
	if res.Origin != OriginSample || res.FallbackReason == nil {
		t.Fatalf("500 with cached body: origin=%s reason=%v", res.Origin, res.FallbackReason)
	}
	var se *feed.StatusError
	if !errors.As(res.FallbackReason, &se) || se.Code != http.StatusInternalServerError {
		t.Errorf("reason = %v", res.FallbackReason)
	}
	if len(res.Events) != 8 {
		t.Errorf("got %d events, want the sample set", len(res.Events))
	}

	// Once the origin is unreachable the cached feed is served again.
	srv.Close()
	if res := l.Load(context.Background()); res.Origin != OriginJSON || len(res.Events) != 1 {
		t.Errorf("offline load: origin=%s n=%d", res.Origin, len(res.Events))
	}
}

func TestReplaceAssignsMissingIDs(t *testing.T) {
	s := NewStore(nil)
	s.Replace([]model.Event{
		{ID: "keep", Date: model.NewDate(2024, 3, 5), Title: "Kept"},
		{Date: model.NewDate(2024, 3, 5), Title: "No id"},
	})
	all := s.All()
	if all[0].ID != "keep" {
		t.Errorf("existing id changed to %q", all[0].ID)
	}
	if all[1].ID == "" {
		t.Fatal("expected generated id")
	}
	if !s.Remove(all[1].ID) || s.Len() != 1 {
		t.Errorf("could not remove replaced event, Len = %d", s.Len())
	}
}

func TestLoaderJSONAndICS(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "date": "2024-03-05", "title": "Orientation", "time": "09:00", "description": "Welcome"}]`))
	})
	mux.HandleFunc("/district.ics", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//T//T//EN\r\n" +
			"BEGIN:VEVENT\r\nUID:h1\r\nDTSTAMP:20240101T000000Z\r\nDTSTART;VALUE=DATE:20240329\r\nSUMMARY:Spring Holiday\r\nEND:VEVENT\r\n" +
			"END:VCALENDAR\r\n"))
	})
	mux.HandleFunc("/broken.ics", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := &Loader{
		EventsURL: srv.URL + "/events.json",
		ICS: []feed.Source{
			{ID: "district", URL: srv.URL + "/district.ics"},
			{ID: "broken", URL: srv.URL + "/broken.ics"},
		},
		Location: time.UTC,
	}
	store := NewStore(nil)
	res := l.Refresh(context.Background(), store)
	if res.Origin != OriginJSON {
		t.Fatalf("origin = %s (%v)", res.Origin, res.FallbackReason)
	}
	if store.Len() != 2 {
		t.Fatalf("store has %d events", store.Len())
	}
	if got := store.ForDate(model.NewDate(2024, 3, 29)); len(got) != 1 || got[0].Source != "district" {
		t.Errorf("ICS event missing: %+v", got)
	}
	if got := store.ForDate(model.NewDate(2024, 3, 5)); len(got) != 1 || got[0].ID != "1" || got[0].Source != OriginJSON {
		t.Errorf("JSON event missing: %+v", got)
	}
}
