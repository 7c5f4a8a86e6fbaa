package notify

import "log"

// LogEmitter writes notifications to a logger.
type LogEmitter struct {
	Logger *log.Logger
}

func (l LogEmitter) Receive(title, message string, sev Severity) {
	l.Logger.Printf("[%s] %s: %s", sev, title, message)
}
