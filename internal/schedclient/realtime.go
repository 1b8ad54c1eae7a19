package schedclient

import (
	"context"
	"fmt"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/scheduler"
)

// EventStream yields push events from the transport. Next blocks until an
// event arrives, the context is cancelled, or the connection drops.
type EventStream interface {
	Next(ctx context.Context) (models.ScheduleEvent, error)
}

// Notice is the transient, user-visible description of a change that arrived
// over the push stream.
type Notice struct {
	Kind      models.ScheduleEventType
	SessionID int64
	Message   string
}

// RealtimeSync keeps a ScheduleStore consistent with the push stream. The
// actor id is passed in explicitly rather than read from ambient auth state,
// so the component tests in isolation. Events are triggers, not sources of
// truth: whenever one arrives without a session payload the store refetches,
// which makes out-of-order delivery harmless.
type RealtimeSync struct {
	trainerID int64
	store     *ScheduleStore
	onNotice  func(Notice)
}

func NewRealtimeSync(trainerID int64, store *ScheduleStore, onNotice func(Notice)) *RealtimeSync {
	return &RealtimeSync{
		trainerID: trainerID,
		store:     store,
		onNotice:  onNotice,
	}
}

// Run consumes the stream until it fails or the context ends. It starts with
// an unconditional refresh: events missed while disconnected could otherwise
// leave stale conflict data. Callers reconnect by calling Run again with a
// fresh stream.
func (r *RealtimeSync) Run(ctx context.Context, stream EventStream) error {
	if err := r.store.Refresh(ctx); err != nil {
		return err
	}

	for {
		event, err := stream.Next(ctx)
		if err != nil {
			return &scheduler.TransportError{Op: "receive push event", Err: err}
		}
		if err := r.HandleEvent(ctx, event); err != nil {
			return err
		}
	}
}

// HandleEvent applies one push event. Events naming a different trainer are
// discarded; the stream may be shared across actors on the same connection.
func (r *RealtimeSync) HandleEvent(ctx context.Context, event models.ScheduleEvent) error {
	if event.TrainerID != r.trainerID {
		return nil
	}

	switch event.Type {
	case models.EventSessionCreated, models.EventSessionUpdated:
		if event.Session != nil {
			if event.Type == models.EventSessionCreated {
				r.store.ApplyCreated(*event.Session)
			} else {
				r.store.ApplyUpdated(*event.Session)
			}
		} else {
			r.store.Invalidate()
			if err := r.store.Refresh(ctx); err != nil {
				return err
			}
		}
	case models.EventSessionDeleted:
		r.store.ApplyDeleted(event.SessionID)
	default:
		return nil
	}

	r.notify(event)
	return nil
}

func (r *RealtimeSync) notify(event models.ScheduleEvent) {
	if r.onNotice == nil {
		return
	}

	var message string
	switch event.Type {
	case models.EventSessionCreated:
		message = "New booking added to your schedule"
	case models.EventSessionUpdated:
		message = "A booking on your schedule was updated"
	case models.EventSessionDeleted:
		message = "A booking was removed from your schedule"
	default:
		message = fmt.Sprintf("Schedule changed (%s)", event.Type)
	}

	r.onNotice(Notice{
		Kind:      event.Type,
		SessionID: event.SessionID,
		Message:   message,
	})
}
