// Package notify delivers mutation outcomes to notification sinks.
//
// Sinks are fire-and-forget: Receive never blocks on slow delivery and never
// reports failure to the caller.
package notify

import (
	"fmt"
	"time"
)

// Severity grades a notification.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
)

// ParseSeverity converts s to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case Info, Success, Warning:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Emitter receives notifications.
type Emitter interface {
	Receive(title, message string, sev Severity)
}

// Notification is one item in a notification feed.
type Notification struct {
	ID       string
	Time     time.Time
	Severity Severity
	Title    string
	Message  string
	Read     bool
}

// Discard drops every notification.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Receive(string, string, Severity) {}

// Multi fans a notification out to every emitter in order.
type Multi []Emitter

func (m Multi) Receive(title, message string, sev Severity) {
	for _, e := range m {
		e.Receive(title, message, sev)
	}
}

// Toggle forwards to Emitter while Enabled is true.
type Toggle struct {
	Emitter Emitter
	Enabled bool
}

func (t Toggle) Receive(title, message string, sev Severity) {
	if t.Enabled {
		t.Emitter.Receive(title, message, sev)
	}
}
