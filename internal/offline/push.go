package offline

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	notificationIcon = "/assets/logos/logo.svg"
	// ClickTarget is the page opened when a notification is clicked.
	ClickTarget = "/"
)

var notificationVibrate = []int{100, 50, 100}

// ErrNoPayload is returned for a push without data.
var ErrNoPayload = errors.New("offline: push has no payload")

// PushPayload is the data carried by a push message.
type PushPayload struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	PrimaryKey *int   `json:"primaryKey,omitempty"`
}

type NotificationData struct {
	DateOfArrival int64 `json:"dateOfArrival"` // unix millis
	PrimaryKey    int   `json:"primaryKey"`
}

// Notification is what the system would display for a push.
type Notification struct {
	ID      string           `json:"id"`
	Title   string           `json:"title"`
	Body    string           `json:"body"`
	Icon    string           `json:"icon"`
	Badge   string           `json:"badge"`
	Vibrate []int            `json:"vibrate"`
	Data    NotificationData `json:"data"`
}

// BuildNotification parses a push payload. A missing primaryKey defaults
// to 1.
func BuildNotification(data []byte, now time.Time) (Notification, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Notification{}, ErrNoPayload
	}

	var p PushPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Notification{}, errors.Wrap(err, "offline: decode push payload")
	}
	if p.Title == "" {
		return Notification{}, errors.New("offline: push payload has no title")
	}

	key := 1
	if p.PrimaryKey != nil {
		key = *p.PrimaryKey
	}
	return Notification{
		ID:      uuid.NewString(),
		Title:   p.Title,
		Body:    p.Body,
		Icon:    notificationIcon,
		Badge:   notificationIcon,
		Vibrate: append([]int(nil), notificationVibrate...),
		Data: NotificationData{
			DateOfArrival: now.UnixMilli(),
			PrimaryKey:    key,
		},
	}, nil
}

// Outbox holds the most recent notifications, newest last.
type Outbox struct {
	mu    sync.Mutex
	max   int
	items []Notification
}

func NewOutbox(max int) *Outbox {
	if max <= 0 {
		max = 50
	}
	return &Outbox{max: max}
}

func (o *Outbox) Push(n Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.items = append(o.items, n)
	if over := len(o.items) - o.max; over > 0 {
		o.items = append([]Notification(nil), o.items[over:]...)
	}
}

func (o *Outbox) List() []Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Notification{}, o.items...)
}

// Click closes the notification and returns the page to open.
func (o *Outbox) Click(id string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, n := range o.items {
		if n.ID == id {
			o.items = append(o.items[:i], o.items[i+1:]...)
			return ClickTarget, true
		}
	}
	return "", false
}
