package web

import (
	"errors"
	"io"
	"net/http"

	appLog "riverside/internal/log"
	"riverside/internal/offline"
)

// handleOfflineStatus reports the active and waiting cache versions. The
// page polls it to offer a reload when an update is waiting.
//
// GET /api/offline
func (s *Server) handleOfflineStatus(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Offline == nil {
		writeJSON(w, http.StatusOK, offline.Status{Caches: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Offline.Status())
}

// handleOfflineActivate switches to the waiting version ("reload to
// update").
//
// POST /api/offline/activate
func (s *Server) handleOfflineActivate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Offline == nil {
		writeError(w, http.StatusServiceUnavailable, "offline cache disabled")
		return
	}
	err := s.deps.Offline.ActivateWaiting(r.Context())
	switch {
	case errors.Is(err, offline.ErrNoWaiting):
		writeError(w, http.StatusConflict, "no update waiting")
	case err != nil:
		appLog.Error("offline activate failed", err)
		writeError(w, http.StatusInternalServerError, "activation failed")
	default:
		writeJSON(w, http.StatusOK, s.deps.Offline.Status())
	}
}

// handlePush turns a push payload into a notification.
//
// POST /api/push {"title":"Open House","body":"Saturday 10am","primaryKey":2}
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read payload")
		return
	}
	n, err := offline.BuildNotification(data, s.deps.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.deps.Outbox.Push(n)
	appLog.Info("notification queued", "id", n.ID, "title", n.Title)
	writeJSON(w, http.StatusCreated, n)
}

// GET /api/notifications
func (s *Server) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Outbox.List())
}

// handleNotificationClick closes a notification and tells the page where
// to go.
//
// POST /api/notifications/click {"id":"..."}
func (s *Server) handleNotificationClick(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeBody(w, r, &body); err != nil || body.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	target, ok := s.deps.Outbox.Click(body.ID)
	if !ok {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"open": target})
}

// handlePreview serves the last calendar snapshot, taking the first one on
// demand.
//
// GET /preview.png
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Snapshots == nil {
		writeError(w, http.StatusNotFound, "snapshots disabled")
		return
	}
	png, taken, ok := s.deps.Snapshots.Latest()
	if !ok {
		if err := s.deps.Snapshots.Refresh(r.Context()); err != nil {
			appLog.Error("preview capture failed", err)
			writeError(w, http.StatusServiceUnavailable, "no snapshot available")
			return
		}
		png, taken, _ = s.deps.Snapshots.Latest()
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Last-Modified", taken.UTC().Format(http.TimeFormat))
	_, _ = w.Write(png)
}
