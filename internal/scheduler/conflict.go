package scheduler

import (
	"time"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

// Candidate is a session the trainer is about to submit.
type Candidate struct {
	MemberID        int64
	TrainerID       int64
	BranchID        int64
	SubscriptionID  *int64
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           *string
}

func (c Candidate) EndsAt() time.Time {
	return c.ScheduledAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// ValidateCandidate rejects malformed candidates before any conflict check.
// A candidate starting in the past is a validation failure, not a conflict;
// a one-minute grace window absorbs clock skew between client and server.
func ValidateCandidate(c Candidate, now time.Time) error {
	if c.MemberID <= 0 {
		return &ValidationError{Field: "member_id", Reason: "is required"}
	}
	if c.BranchID <= 0 {
		return &ValidationError{Field: "branch_id", Reason: "is required"}
	}
	if c.DurationMinutes <= 0 {
		return &ValidationError{Field: "duration_minutes", Reason: "must be greater than 0"}
	}
	if c.ScheduledAt.Before(now.Add(-1 * time.Minute)) {
		return &ValidationError{Field: "scheduled_at", Reason: "must not be in the past"}
	}
	return nil
}

// FindConflict scans the trainer's sessions in list order and returns the
// first pending or confirmed session whose interval overlaps the candidate's,
// or nil when the slot is free. The scan order makes the result deterministic
// for a given list.
func FindConflict(sessions []models.Session, start time.Time, durationMinutes int) *models.Session {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	for i := range sessions {
		session := &sessions[i]
		if !session.Status.OccupiesSlot() {
			continue
		}
		if start.Before(session.EndsAt()) && end.After(session.ScheduledAt) {
			return session
		}
	}
	return nil
}

// CheckCandidate runs validation first and the conflict scan second,
// returning a ValidationError or ConflictError respectively.
func CheckCandidate(sessions []models.Session, c Candidate, now time.Time) error {
	if err := ValidateCandidate(c, now); err != nil {
		return err
	}
	if blocking := FindConflict(sessions, c.ScheduledAt, c.DurationMinutes); blocking != nil {
		return &ConflictError{Blocking: blocking}
	}
	return nil
}
