package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"riverside/internal/auth"
	"riverside/internal/capture"
	"riverside/internal/config"
	"riverside/internal/events"
	appLog "riverside/internal/log"
	"riverside/internal/model"
	"riverside/internal/offline"
)

// Deps are the components the HTTP surface binds together. Loader,
// Offline, Outbox and Snapshots are optional.
type Deps struct {
	Config    *config.Config
	Events    *events.Store
	Loader    *events.Loader
	Offline   *offline.Registration
	Outbox    *offline.Outbox
	Snapshots *capture.Snapshotter

	// Now is overridable for tests.
	Now func() time.Time
}

// Server provides the calendar pages, the JSON API and the offline site.
type Server struct {
	cfg  *config.Config
	deps Deps
	mux  *http.ServeMux
	loc  *time.Location

	// In-memory cache for /events.ics, keyed on the store version so any
	// change to the event list invalidates it.
	icsMu    sync.RWMutex
	icsCache *icsCache
}

// NewServer constructs a new Server.
func NewServer(deps Deps) *Server {
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	if deps.Events == nil {
		deps.Events = events.NewStore(nil)
	}
	if deps.Outbox == nil {
		deps.Outbox = offline.NewOutbox(0)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Server{
		cfg:  deps.Config,
		deps: deps,
		mux:  http.NewServeMux(),
		loc:  deps.Config.Location(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /calendar", s.handleCalendarPage)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendarAPI)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("GET /api/events/day", s.handleEventsForDay)
	s.mux.Handle("POST /api/events", s.requireAuth(http.HandlerFunc(s.handleAddEvent)))
	s.mux.Handle("PUT /api/events", s.requireAuth(http.HandlerFunc(s.handleReplaceEvents)))
	s.mux.Handle("DELETE /api/events/{id}", s.requireAuth(http.HandlerFunc(s.handleRemoveEvent)))
	s.mux.Handle("POST /api/events/refresh", s.requireAuth(http.HandlerFunc(s.handleRefreshEvents)))
	s.mux.HandleFunc("GET /events.ics", s.handleICSExport)

	s.mux.HandleFunc("POST /api/contact", s.handleContact)
	s.mux.HandleFunc("POST /api/apply", s.handleApply)
	s.mux.HandleFunc("GET /api/tuition", s.handleTuition)

	s.mux.HandleFunc("GET /api/gallery", s.handleGallery)

	s.mux.HandleFunc("GET /api/offline", s.handleOfflineStatus)
	s.mux.HandleFunc("POST /api/offline/activate", s.handleOfflineActivate)
	s.mux.HandleFunc("POST /api/push", s.handlePush)
	s.mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	s.mux.HandleFunc("POST /api/notifications/click", s.handleNotificationClick)

	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /manifest.webmanifest", s.handleWebManifest)

	// Unknown API paths get a JSON 404, never a page from the site.
	s.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	// Everything else is the site, through the offline cache when one is
	// registered.
	if s.deps.Offline != nil {
		s.mux.Handle("/", s.deps.Offline)
	} else {
		s.mux.Handle("/", StaticHandler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// credentials returns the configured operator login, if any.
func (s *Server) credentials() auth.Credentials {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return auth.Credentials{}
	}
	return auth.Credentials{
		Username:     s.cfg.BasicAuth.Username,
		Password:     s.cfg.BasicAuth.Password,
		PasswordHash: s.cfg.BasicAuth.PasswordHash,
	}
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. An empty
// username or password counts as disabled.
func (s *Server) basicAuthEnabled() bool {
	return s.credentials().Enabled()
}

// requireAuth guards the event management endpoints with HTTP Basic Auth
// when it is configured. Public pages never ask for credentials.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	creds := s.credentials()
	if !creds.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		match := false
		if ok {
			var err error
			if match, err = creds.Check(u, p); err != nil {
				appLog.Error("basic auth check failed", err)
			}
		}
		if !match {
			appLog.Warn("failed auth attempt", "remote", r.RemoteAddr, "user", u)
			w.Header().Set("WWW-Authenticate", `Basic realm="Riverside", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) StartServer(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen, "basic_auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("stopping HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) today() model.Date {
	return model.DateOf(s.deps.Now().In(s.loc))
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeFieldErrors reports validation failures per field.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	type errResp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	writeJSON(w, http.StatusBadRequest, errResp{Error: "validation failed", Fields: fields})
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body, or a form-encoded one whose field names
// match the JSON names (all values are strings).
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ct := r.Header.Get("Content-Type")
	if ct == "" || strings.HasPrefix(ct, "application/json") {
		dec := json.NewDecoder(r.Body)
		return dec.Decode(v)
	}

	if err := r.ParseForm(); err != nil {
		return err
	}
	fields := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
