// Package forms validates the contact and application forms and computes
// tuition estimates. Submissions are acknowledged but not delivered
// anywhere.
package forms

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ContactThanks     = "Thank you for your message! We will get back to you within 24 hours."
	ApplicationThanks = "Application submitted successfully! You will receive a confirmation email shortly."
)

type Contact struct {
	Name    string `json:"name" validate:"notblank"`
	Email   string `json:"email" validate:"notblank,site_email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" validate:"notblank"`
}

type Application struct {
	FirstName string `json:"first_name" validate:"notblank"`
	LastName  string `json:"last_name" validate:"notblank"`
	Email     string `json:"email" validate:"notblank,site_email"`
	Phone     string `json:"phone" validate:"notblank,phone10"`
	Program   string `json:"program" validate:"required,oneof=undergraduate graduate doctoral"`
	Residency string `json:"residency" validate:"required,oneof=instate outstate"`
	Statement string `json:"statement" validate:"notblank"`
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	Reference  string    `json:"reference"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

func (c *Contact) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Subject = strings.TrimSpace(c.Subject)
	c.Message = strings.TrimSpace(c.Message)
}

func (a *Application) normalize() {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Program = strings.ToLower(strings.TrimSpace(a.Program))
	a.Residency = strings.ToLower(strings.TrimSpace(a.Residency))
	a.Statement = strings.TrimSpace(a.Statement)
}

// SubmitContact validates c and returns a receipt, or FieldErrors.
func SubmitContact(c Contact, now time.Time) (Receipt, error) {
	c.normalize()
	if err := Check(c); err != nil {
		return Receipt{}, err
	}
	return newReceipt(ContactThanks, now), nil
}

// SubmitApplication validates a and returns a receipt, or FieldErrors.
func SubmitApplication(a Application, now time.Time) (Receipt, error) {
	a.normalize()
	if err := Check(a); err != nil {
		return Receipt{}, err
	}
	return newReceipt(ApplicationThanks, now), nil
}

func newReceipt(msg string, now time.Time) Receipt {
	return Receipt{Reference: uuid.NewString(), Message: msg, ReceivedAt: now.UTC()}
}
