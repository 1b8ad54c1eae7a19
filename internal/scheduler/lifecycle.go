package scheduler

import (
	"strings"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

// Transition is an actor-requested lifecycle step. Deletion is not a
// transition: it removes the record regardless of status and is handled by
// the services layer.
type Transition string

const (
	TransitionConfirm  Transition = "confirm"
	TransitionComplete Transition = "complete"
	TransitionCancel   Transition = "cancel"
)

// targets maps each transition to the status it produces. No transition
// produces no_show; that status is set by an external collaborator.
var targets = map[Transition]models.SessionStatus{
	TransitionConfirm:  models.SessionConfirmed,
	TransitionComplete: models.SessionCompleted,
	TransitionCancel:   models.SessionCancelled,
}

var legal = map[models.SessionStatus][]Transition{
	models.SessionPending:   {TransitionConfirm, TransitionCancel},
	models.SessionConfirmed: {TransitionComplete, TransitionCancel},
}

// ParseTransition normalizes the requested status names the API accepts.
func ParseTransition(raw string) (Transition, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "confirm", "confirmed":
		return TransitionConfirm, nil
	case "complete", "completed":
		return TransitionComplete, nil
	case "cancel", "cancelled", "canceled":
		return TransitionCancel, nil
	default:
		return "", &ValidationError{Field: "status", Reason: "must be confirm, complete or cancel"}
	}
}

func (t Transition) Target() models.SessionStatus {
	return targets[t]
}

// Allowed reports whether the transition is legal from the given status.
func Allowed(from models.SessionStatus, t Transition) bool {
	for _, candidate := range legal[from] {
		if candidate == t {
			return true
		}
	}
	return false
}

// Step returns the status the transition produces, or a TransitionError when
// the step is not legal from the current status.
func Step(from models.SessionStatus, t Transition) (models.SessionStatus, error) {
	if !Allowed(from, t) {
		return "", &TransitionError{From: from, Requested: t}
	}
	return targets[t], nil
}

// AvailableTransitions lists the legal steps from a status, in a stable
// order, so the UI can hide buttons for everything else.
func AvailableTransitions(from models.SessionStatus) []Transition {
	steps := legal[from]
	out := make([]Transition, len(steps))
	copy(out, steps)
	return out
}
