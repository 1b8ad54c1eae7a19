package scheduler

import (
	"fmt"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

// ValidationError marks a malformed candidate or request. It is resolved
// locally and rendered next to the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// ConflictError carries the first session blocking a candidate interval, so
// callers can render its date and time in the warning.
type ConflictError struct {
	Blocking *models.Session
}

func (e *ConflictError) Error() string {
	if e.Blocking == nil {
		return "requested time conflicts with another session"
	}
	return fmt.Sprintf(
		"requested time conflicts with session %d at %s",
		e.Blocking.ID,
		e.Blocking.ScheduledAt.Format("2006-01-02 15:04"),
	)
}

// TransitionError marks a lifecycle transition that is not legal from the
// session's current status.
type TransitionError struct {
	From      models.SessionStatus
	Requested Transition
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a session in status %q", e.Requested, e.From)
}

// TransportError wraps a network or backend failure unrelated to business
// rules. Callers refresh their schedule cache when they see one, since it
// implies their view may be stale.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
