// Package notify is the shared user-facing notification surface. The request
// pipeline and channel manager report every classified failure here exactly
// once; callers that also receive the error as a return value render it
// without reporting again.
package notify

import (
	"log/slog"
	"sync"
)

// Level classifies a notification for the rendering layer.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Sink receives user-visible notifications. Messages are short and
// human-readable, never stack traces or protocol detail.
type Sink interface {
	Notify(level Level, message string)
}

// LogSink forwards notifications to a slog logger. It is the default sink
// for non-interactive use.
type LogSink struct {
	Logger *slog.Logger
}

// Notify implements Sink.
func (s *LogSink) Notify(level Level, message string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch level {
	case LevelError:
		logger.Error(message)
	default:
		logger.Info(message, "level", string(level))
	}
}

// Notification is a captured sink entry.
type Notification struct {
	Level   Level
	Message string
}

// Capture records notifications for inspection in tests.
type Capture struct {
	mu      sync.Mutex
	entries []Notification
}

// Notify implements Sink.
func (c *Capture) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Notification{Level: level, Message: message})
}

// Entries returns a copy of everything captured so far.
func (c *Capture) Entries() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.entries))
	copy(out, c.entries)
	return out
}
