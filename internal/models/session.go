package models

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionNoShow    SessionStatus = "no_show"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionConfirmed, SessionCompleted, SessionCancelled, SessionNoShow:
		return true
	default:
		return false
	}
}

// OccupiesSlot reports whether a session in this status blocks the trainer's
// calendar. Completed, cancelled and no-show sessions are history, not occupancy.
func (s SessionStatus) OccupiesSlot() bool {
	return s == SessionPending || s == SessionConfirmed
}

type Session struct {
	ID              int64         `json:"id"`
	Member          Ref[Member]   `json:"member"`
	Trainer         Ref[Trainer]  `json:"trainer"`
	Branch          Ref[Branch]   `json:"branch"`
	SubscriptionID  *int64        `json:"subscription_id,omitempty"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          SessionStatus `json:"status"`
	Notes           *string       `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (s *Session) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
