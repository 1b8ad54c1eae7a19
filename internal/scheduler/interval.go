package scheduler

import (
	"time"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

// Interval is a half-open [Start, End) slice of a trainer's calendar.
type Interval struct {
	Start     time.Time
	End       time.Time
	SessionID int64
}

// Overlaps uses the half-open test, so an interval ending exactly when
// another starts does not overlap and back-to-back sessions are allowed.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// BusyIntervals builds the occupied slots of a trainer from their session
// list, keeping list order. Only pending and confirmed sessions occupy time.
func BusyIntervals(sessions []models.Session) []Interval {
	intervals := make([]Interval, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		if !session.Status.OccupiesSlot() {
			continue
		}
		intervals = append(intervals, Interval{
			Start:     session.ScheduledAt,
			End:       session.EndsAt(),
			SessionID: session.ID,
		})
	}
	return intervals
}
