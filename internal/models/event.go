package models

type ScheduleEventType string

const (
	EventSessionCreated ScheduleEventType = "session_created"
	EventSessionUpdated ScheduleEventType = "session_updated"
	EventSessionDeleted ScheduleEventType = "session_deleted"
)

// ScheduleEvent is the push notification emitted whenever a session changes.
// TrainerID and MemberID scope delivery; Session carries the fresh record for
// created/updated events and is nil for deletions.
type ScheduleEvent struct {
	Type      ScheduleEventType `json:"type"`
	SessionID int64             `json:"session_id"`
	TrainerID int64             `json:"trainer_id"`
	MemberID  int64             `json:"member_id"`
	Session   *Session          `json:"session,omitempty"`
}
