package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"riverside/internal/auth"
	"riverside/internal/config"
	"riverside/internal/events"
	"riverside/internal/forms"
	appLog "riverside/internal/log"
	"riverside/internal/model"
	"riverside/internal/offline"
)

func init() {
	appLog.SetOutput(io.Discard)
}

var testNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func testEvents() []model.Event {
	return []model.Event{
		{ID: "orientation", Date: model.NewDate(2024, 3, 5), Time: "14:00", Title: "Orientation", Description: "Welcome for new students"},
		{ID: "open-house", Date: model.NewDate(2024, 3, 16), Time: "10:00", Title: "Open House"},
	}
}

func newTestServer(t *testing.T, mutate func(*Deps)) (*Server, *events.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	store := events.NewStore(testEvents())
	deps := Deps{
		Config: cfg,
		Events: store,
		Now:    func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewServer(deps), store
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCalendarPageMarksEventDays(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/calendar?month=2024-03", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "<!DOCTYPE html>") {
		t.Errorf("full page expected, got %.40q", body)
	}
	if !strings.Contains(body, `class="calendar-day has-events today" data-date="2024-03-05"`) {
		t.Errorf("March 5 not marked as today with events:\n%s", body)
	}
	if !strings.Contains(body, `class="calendar-day has-events" data-date="2024-03-16"`) {
		t.Errorf("March 16 not marked with events")
	}
	if !strings.Contains(body, "March 2024") {
		t.Errorf("title missing")
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestCalendarFragmentKeyNavigation(t *testing.T) {
	s, _ := newTestServer(t, nil)

	cases := []struct {
		name      string
		query     string
		wantFocus string
		wantMonth string
	}{
		{"end", "month=2024-03&focus=2024-03-05&key=End", "2024-03-31", "2024-03"},
		{"home", "month=2024-03&focus=2024-03-05&key=Home", "2024-03-01", "2024-03"},
		{"right across month", "month=2024-03&focus=2024-03-31&key=ArrowRight", "2024-04-01", "2024-04"},
		{"shift page up", "month=2024-03&focus=2024-03-05&key=PageUp&shift=1", "2023-03-05", "2023-03"},
		{"next month", "month=2024-03&focus=2024-03-05&action=next", "2024-04-05", "2024-04"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/calendar?fragment=1&"+tc.query, nil, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := rec.Header().Get("X-Calendar-Focus"); got != tc.wantFocus {
				t.Errorf("focus = %q; want %q", got, tc.wantFocus)
			}
			if got := rec.Header().Get("X-Calendar-Month"); got != tc.wantMonth {
				t.Errorf("month = %q; want %q", got, tc.wantMonth)
			}
			body := rec.Body.String()
			if strings.Contains(body, "<!DOCTYPE html>") {
				t.Error("fragment should not contain the page shell")
			}
			if n := strings.Count(body, `tabindex="0"`); n != 1 {
				t.Errorf("cells with tabindex 0 = %d; want 1", n)
			}
		})
	}
}

func TestCalendarUnknownKeyNotHandled(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/calendar?fragment=1&focus=2024-03-05&key=Tab", nil, nil)
	if got := rec.Header().Get("X-Calendar-Handled"); got != "false" {
		t.Errorf("X-Calendar-Handled = %q; want false", got)
	}
	if got := rec.Header().Get("X-Calendar-Focus"); got != "2024-03-05" {
		t.Errorf("focus moved to %q", got)
	}
}

func TestCalendarShowOpensDetails(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/calendar?fragment=1&focus=2024-03-05&selected=2024-03-05&action=show", nil, nil)
	body := rec.Body.String()
	if !strings.Contains(body, `aria-hidden="false"`) {
		t.Error("details dialog not open")
	}
	if !strings.Contains(body, "<h4>Orientation</h4>") || !strings.Contains(body, "2:00 PM") {
		t.Errorf("event line missing:\n%s", body)
	}
}

func TestCalendarAPI(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/calendar?month=2024-03&focus=2024-03-16&action=show", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp calendarResponse
	decode(t, rec, &resp)
	if resp.Title != "March 2024" || resp.Month != "2024-03" {
		t.Errorf("title/month = %q/%q", resp.Title, resp.Month)
	}
	if len(resp.Cells) != 42 {
		t.Fatalf("cells = %d; want 42", len(resp.Cells))
	}
	focused := 0
	for _, c := range resp.Cells {
		if c.Focused {
			focused++
			if c.Date.String() != "2024-03-16" {
				t.Errorf("focused cell = %v", c.Date)
			}
		}
	}
	if focused != 1 {
		t.Errorf("focused cells = %d; want 1", focused)
	}
	if resp.Details == nil || len(resp.Details.Events) != 1 || resp.Details.Events[0].Title != "Open House" {
		t.Fatalf("details = %+v", resp.Details)
	}
	if resp.Selected == nil || resp.Selected.String() != "2024-03-16" {
		t.Errorf("selected = %v", resp.Selected)
	}
}

func TestEventsForDay(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/events/day?date=2024-03-07", nil, nil)
	var resp struct {
		Message string `json:"message"`
		Summary string `json:"summary"`
		Events  []any  `json:"events"`
	}
	decode(t, rec, &resp)
	if len(resp.Events) != 0 || resp.Message == "" {
		t.Errorf("empty day = %+v", resp)
	}
	if resp.Summary != "No events for Thursday, March 7, 2024" {
		t.Errorf("summary = %q", resp.Summary)
	}

	rec = do(t, s, http.MethodGet, "/api/events/day?date=March", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", rec.Code)
	}
}

func TestEventsCRUD(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/events",
		strings.NewReader(`{"date":"2024-03-20","time":"09:30","title":"Career Fair"}`),
		map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d %s", rec.Code, rec.Body.String())
	}
	var added model.Event
	decode(t, rec, &added)
	if added.ID == "" || added.Source != "api" {
		t.Errorf("added = %+v", added)
	}
	if store.Len() != 3 {
		t.Fatalf("store len = %d", store.Len())
	}

	rec = do(t, s, http.MethodPost, "/api/events", strings.NewReader(`{"date":"2024-03-20","time":"25:00"}`), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid add status = %d", rec.Code)
	}
	var fe struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &fe)
	if fe.Fields["title"] == "" || fe.Fields["time"] == "" {
		t.Errorf("fields = %v", fe.Fields)
	}

	rec = do(t, s, http.MethodDelete, "/api/events/"+string(added.ID), nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodDelete, "/api/events/"+string(added.ID), nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodPut, "/api/events",
		strings.NewReader(`[{"id":"a","date":"2024-04-01","title":"Spring Break"}]`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace status = %d %s", rec.Code, rec.Body.String())
	}
	if all := store.All(); len(all) != 1 || all[0].Title != "Spring Break" {
		t.Errorf("after replace = %+v", all)
	}

	rec = do(t, s, http.MethodPut, "/api/events", strings.NewReader(`[{"id":"a","title":"No date"}]`), nil)
	decode(t, rec, &fe)
	if _, ok := fe.Fields["0.date"]; !ok {
		t.Errorf("replace fields = %v", fe.Fields)
	}
}

func TestEventChangesShowOnCalendar(t *testing.T) {
	s, _ := newTestServer(t, nil)
	const cell = `class="calendar-day has-events" data-date="2024-03-20"`

	page := func() string {
		t.Helper()
		return do(t, s, http.MethodGet, "/calendar?month=2024-03", nil, nil).Body.String()
	}
	if strings.Contains(page(), cell) {
		t.Fatal("March 20 marked before any event was added")
	}

	rec := do(t, s, http.MethodPost, "/api/events",
		strings.NewReader(`{"date":"2024-03-20","title":"Career Fair"}`), nil)
	var added model.Event
	decode(t, rec, &added)
	if !strings.Contains(page(), cell) {
		t.Error("added event not shown")
	}

	do(t, s, http.MethodDelete, "/api/events/"+string(added.ID), nil, nil)
	if strings.Contains(page(), cell) {
		t.Error("removed event still shown")
	}

	// Events replaced without ids still get one and can be deleted.
	rec = do(t, s, http.MethodPut, "/api/events",
		strings.NewReader(`[{"date":"2024-03-20","title":"Science Night"}]`), nil)
	var list eventsResponse
	decode(t, rec, &list)
	if list.Count != 1 || list.Events[0].ID == "" {
		t.Fatalf("replace = %+v", list)
	}
	if !strings.Contains(page(), cell) {
		t.Error("replaced event not shown")
	}
	if rec := do(t, s, http.MethodDelete, "/api/events/"+string(list.Events[0].ID), nil, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete replaced event status = %d", rec.Code)
	}
}

func TestListEventsRange(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/events", nil, nil)
	var list eventsResponse
	decode(t, rec, &list)
	if list.Count != 2 {
		t.Errorf("count = %d", list.Count)
	}

	rec = do(t, s, http.MethodGet, "/api/events?from=2024-03-10&to=2024-03-31", nil, nil)
	var rng rangeResponse
	decode(t, rec, &rng)
	if len(rng.Occurrences) != 1 || rng.Occurrences[0].Event.Title != "Open House" {
		t.Errorf("occurrences = %+v", rng.Occurrences)
	}

	rec = do(t, s, http.MethodGet, "/api/events?from=2024-01-01&to=2026-01-01", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized range status = %d", rec.Code)
	}
}

func TestEventMutationRequiresAuth(t *testing.T) {
	s, store := newTestServer(t, func(d *Deps) {
		d.Config.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	})

	rec := do(t, s, http.MethodDelete, "/api/events/orientation", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate")
	}
	if store.Len() != 2 {
		t.Fatal("unauthenticated delete changed the store")
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/events/orientation", nil)
	req.SetBasicAuth("admin", "secret")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("authenticated delete = %d", rr.Code)
	}

	// Reads stay public.
	if rec := do(t, s, http.MethodGet, "/api/events", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("public read = %d", rec.Code)
	}
}

func TestEventMutationWithHashedPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, func(d *Deps) {
		d.Config.BasicAuth = &config.BasicAuthConfig{Username: "office", PasswordHash: hash}
	})

	for _, tc := range []struct {
		user, pass string
		want       int
	}{
		{"office", "wrong", http.StatusUnauthorized},
		{"office", "s3cret", http.StatusNoContent},
	} {
		req := httptest.NewRequest(http.MethodDelete, "/api/events/open-house", nil)
		req.SetBasicAuth(tc.user, tc.pass)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s/%s: status = %d; want %d", tc.user, tc.pass, rec.Code, tc.want)
		}
	}
}

func TestRefreshWithoutLoader(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/events/refresh", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRefreshFallsBackToSample(t *testing.T) {
	s, store := newTestServer(t, func(d *Deps) {
		d.Loader = &events.Loader{Location: time.UTC, Now: func() time.Time { return testNow }}
	})
	rec := do(t, s, http.MethodPost, "/api/events/refresh", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Origin string `json:"origin"`
		Count  int    `json:"count"`
	}
	decode(t, rec, &resp)
	if resp.Origin != events.OriginSample || resp.Count != store.Len() {
		t.Errorf("refresh = %+v, store len %d", resp, store.Len())
	}
}

func TestICSExport(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/events.ics", nil, nil)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:Orientation") {
		t.Fatalf("body:\n%s", body)
	}

	// A change to the store must not be hidden by the cache.
	if _, err := store.Add(model.Event{Date: model.NewDate(2024, 3, 22), Title: "Science Fair"}); err != nil {
		t.Fatal(err)
	}
	rec = do(t, s, http.MethodGet, "/events.ics", nil, nil)
	if !strings.Contains(rec.Body.String(), "SUMMARY:Science Fair") {
		t.Error("export served stale cache after the store changed")
	}
}

func TestContactForm(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/contact",
		strings.NewReader(`{"name":"Ada","email":"not-an-email","message":""}`), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var fe struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &fe)
	if fe.Fields["email"] != "Please enter a valid email address" {
		t.Errorf("email error = %q", fe.Fields["email"])
	}
	if fe.Fields["message"] != "This field is required" {
		t.Errorf("message error = %q", fe.Fields["message"])
	}

	form := url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hello"}}
	rec = do(t, s, http.MethodPost, "/api/contact", strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	if rec.Code != http.StatusOK {
		t.Fatalf("form-encoded status = %d %s", rec.Code, rec.Body.String())
	}
	var receipt forms.Receipt
	decode(t, rec, &receipt)
	if receipt.Message != forms.ContactThanks || receipt.Reference == "" {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestApplicationForm(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","phone":"(555) 123-4567",
		"program":"Graduate","residency":"instate","statement":"I like engines."}`
	rec := do(t, s, http.MethodPost, "/api/apply", strings.NewReader(body), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	var receipt forms.Receipt
	decode(t, rec, &receipt)
	if receipt.Message != forms.ApplicationThanks {
		t.Errorf("message = %q", receipt.Message)
	}
}

func TestTuition(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/tuition?program=graduate&residency=instate&credits=9", nil, nil)
	var got forms.Tuition
	decode(t, rec, &got)
	if got.Base != 4500 || got.Fees != 450 || got.Total != 4950 {
		t.Errorf("tuition = %+v", got)
	}
}

func TestGallery(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/gallery?category=sports", nil, nil)
	var g galleryResponse
	decode(t, rec, &g)
	if g.Category != "sports" || len(g.Items) != 2 || g.Open {
		t.Fatalf("filtered = %+v", g)
	}

	rec = do(t, s, http.MethodGet, "/api/gallery?category=sports&index=1&step=next", nil, nil)
	decode(t, rec, &g)
	if !g.Open || g.Index != 1 || g.HasNext || !g.HasPrev {
		t.Errorf("clamped next = %+v", g)
	}

	rec = do(t, s, http.MethodGet, "/api/gallery?index=99", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range status = %d", rec.Code)
	}
}

func TestOfflineStatusWithoutRegistration(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/offline", nil, nil)
	var st offline.Status
	decode(t, rec, &st)
	if st.Active != "" || st.UpdateAvailable {
		t.Errorf("status = %+v", st)
	}

	rec = do(t, s, http.MethodPost, "/api/offline/activate", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("activate status = %d", rec.Code)
	}
}

func TestOfflineSiteInstallsFromEmbeddedFiles(t *testing.T) {
	ctx := context.Background()
	reg := offline.NewRegistration(offline.NewMemoryStorage(), offline.HandlerNetwork{Handler: StaticHandler()})
	if err := reg.Register(ctx, offline.DefaultManifest()); err != nil {
		t.Fatalf("install default manifest from embedded site: %v", err)
	}

	s, _ := newTestServer(t, func(d *Deps) { d.Offline = reg })

	rec := do(t, s, http.MethodGet, "/api/offline", nil, nil)
	var st offline.Status
	decode(t, rec, &st)
	if st.Active != offline.DefaultVersion || st.ActiveState != offline.StateActivated {
		t.Fatalf("status = %+v", st)
	}

	rec = do(t, s, http.MethodPost, "/api/offline/activate", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("activate with nothing waiting = %d; want 409", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/about.html", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "About Us") {
		t.Errorf("cached page = %d", rec.Code)
	}

	// A second version waits until activated.
	next := offline.DefaultManifest()
	next.Version = "riverside-academy-v2"
	if err := reg.Register(ctx, next); err != nil {
		t.Fatal(err)
	}
	rec = do(t, s, http.MethodGet, "/api/offline", nil, nil)
	decode(t, rec, &st)
	if !st.UpdateAvailable || st.Waiting != "riverside-academy-v2" {
		t.Fatalf("status after update = %+v", st)
	}
	rec = do(t, s, http.MethodPost, "/api/offline/activate", nil, nil)
	decode(t, rec, &st)
	if rec.Code != http.StatusOK || st.Active != "riverside-academy-v2" || len(st.Caches) != 1 {
		t.Errorf("after activate = %d %+v", rec.Code, st)
	}
}

func TestPushAndClick(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/push", strings.NewReader(`{"title":"Open House","body":"Saturday 10am"}`), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("push status = %d %s", rec.Code, rec.Body.String())
	}
	var n offline.Notification
	decode(t, rec, &n)
	if n.Data.PrimaryKey != 1 || n.Data.DateOfArrival != testNow.UnixMilli() {
		t.Errorf("notification data = %+v", n.Data)
	}

	rec = do(t, s, http.MethodPost, "/api/push", strings.NewReader(""), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty push = %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/notifications", nil, nil)
	var list []offline.Notification
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("notifications = %d", len(list))
	}

	rec = do(t, s, http.MethodPost, "/api/notifications/click", strings.NewReader(`{"id":"`+n.ID+`"}`), nil)
	var click map[string]string
	decode(t, rec, &click)
	if click["open"] != "/" {
		t.Errorf("click = %v", click)
	}
	rec = do(t, s, http.MethodPost, "/api/notifications/click", strings.NewReader(`{"id":"`+n.ID+`"}`), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second click = %d", rec.Code)
	}
}

func TestStaticSite(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for _, path := range offline.DefaultManifest().URLs {
		rec := do(t, s, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d; want 200 without redirect", path, rec.Code)
		}
	}

	rec := do(t, s, http.MethodGet, "/missing.html", nil, nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Page not found") {
		t.Errorf("missing page = %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/nope", nil, nil)
	if rec.Code != http.StatusNotFound || !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Errorf("unknown api = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = do(t, s, http.MethodGet, "/manifest.webmanifest", nil, nil)
	if rec.Header().Get("Content-Type") != "application/manifest+json" || rec.Header().Get("Cache-Control") != "no-cache" {
		t.Errorf("manifest headers = %v", rec.Header())
	}
}

func TestPreviewDisabled(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if rec := do(t, s, http.MethodGet, "/preview.png", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}
