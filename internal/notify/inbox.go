package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Inbox is an in-memory notification feed, newest first.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
	now   func() time.Time
}

// NewInbox creates an Inbox seeded with items, which must be newest first.
func NewInbox(items []Notification) *Inbox {
	return &Inbox{items: append([]Notification(nil), items...), now: time.Now}
}

// Receive adds an unread notification at the top of the feed.
func (in *Inbox) Receive(title, message string, sev Severity) {
	n := Notification{
		ID:       uuid.NewString(),
		Time:     in.now().UTC(),
		Severity: sev,
		Title:    title,
		Message:  message,
	}
	in.mu.Lock()
	in.items = append([]Notification{n}, in.items...)
	in.mu.Unlock()
}

// List returns a copy of the feed, newest first.
func (in *Inbox) List() []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]Notification(nil), in.items...)
}

// Unread returns the number of unread notifications.
func (in *Inbox) Unread() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := 0
	for _, it := range in.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkRead marks the notification id as read. It reports whether id exists.
func (in *Inbox) MarkRead(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.items {
		if in.items[i].ID == id {
			in.items[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead marks every notification as read.
func (in *Inbox) MarkAllRead() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.items {
		in.items[i].Read = true
	}
}

// Clear empties the feed.
func (in *Inbox) Clear() {
	in.mu.Lock()
	in.items = nil
	in.mu.Unlock()
}
