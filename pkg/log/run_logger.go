package log

import (
	"time"

	"github.com/google/uuid"
)

// NewRunID returns a fresh identifier for one simulator run.
func NewRunID() string {
	return uuid.NewString()
}

// RunLogger stamps events with a run ID and a timestamp before forwarding
// them. Fields already set on the event are kept.
type RunLogger struct {
	next  Logger
	runID string
}

// NewRunLogger wraps next. A nil next discards events.
func NewRunLogger(next Logger, runID string) *RunLogger {
	return &RunLogger{next: OrNoop(next), runID: runID}
}

// RunID returns the run ID stamped on events.
func (l *RunLogger) RunID() string { return l.runID }

// Log stamps and forwards the event.
func (l *RunLogger) Log(event Event) {
	if event.RunID == "" {
		event.RunID = l.runID
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	l.next.Log(event)
}

var _ Logger = (*RunLogger)(nil)
