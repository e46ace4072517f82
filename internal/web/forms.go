package web

import (
	"errors"
	"net/http"
	"strings"

	"riverside/internal/forms"
	"riverside/internal/gallery"
	appLog "riverside/internal/log"
)

// handleContact validates the contact form. Nothing is sent anywhere; a
// valid submission gets a receipt.
//
// POST /api/contact
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var c forms.Contact
	if err := decodeBody(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	rec, err := forms.SubmitContact(c, s.deps.Now())
	s.writeSubmission(w, "contact", rec, err)
}

// handleApply validates the admissions application.
//
// POST /api/apply
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var a forms.Application
	if err := decodeBody(w, r, &a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	rec, err := forms.SubmitApplication(a, s.deps.Now())
	s.writeSubmission(w, "application", rec, err)
}

func (s *Server) writeSubmission(w http.ResponseWriter, kind string, rec forms.Receipt, err error) {
	var fe forms.FieldErrors
	switch {
	case errors.As(err, &fe):
		writeFieldErrors(w, fe)
	case err != nil:
		appLog.Error("form validation failed", err, "form", kind)
		writeError(w, http.StatusInternalServerError, "could not process form")
	default:
		appLog.Info("form submitted", "form", kind, "reference", rec.Reference)
		writeJSON(w, http.StatusOK, rec)
	}
}

// handleTuition estimates tuition.
//
// GET /api/tuition?program=graduate&residency=instate&credits=9
func (s *Server) handleTuition(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	program := strings.ToLower(strings.TrimSpace(q.Get("program")))
	residency := strings.ToLower(strings.TrimSpace(q.Get("residency")))
	credits := parseIntDefault(q.Get("credits"), 0)

	writeJSON(w, http.StatusOK, forms.EstimateTuition(program, residency, credits))
}

type galleryResponse struct {
	Category string         `json:"category"`
	Items    []gallery.Item `json:"items"`
	Open     bool           `json:"open"`
	Index    int            `json:"index"`
	Current  *gallery.Item  `json:"current,omitempty"`
	HasPrev  bool           `json:"has_prev"`
	HasNext  bool           `json:"has_next"`
}

// handleGallery filters the gallery and pages the lightbox. The state lives
// in the query, so every request builds its own lightbox.
//
// GET /api/gallery?category=sports&index=0&step=next
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lb := gallery.NewLightbox(s.cfg.Gallery)
	lb.Filter(q.Get("category"))

	if idx := q.Get("index"); idx != "" {
		if _, ok := lb.Open(parseIntDefault(idx, -1)); !ok {
			writeError(w, http.StatusBadRequest, "index out of range")
			return
		}
		switch q.Get("step") {
		case "next":
			lb.Next()
		case "prev":
			lb.Prev()
		}
	}

	resp := galleryResponse{
		Category: lb.Category(),
		Items:    lb.Visible(),
		Open:     lb.IsOpen(),
		Index:    lb.Index(),
		HasPrev:  lb.HasPrev(),
		HasNext:  lb.HasNext(),
	}
	if it, ok := lb.Current(); ok {
		resp.Current = &it
	}
	writeJSON(w, http.StatusOK, resp)
}
