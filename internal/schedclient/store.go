// Package schedclient is the client-side half of the scheduling engine: a
// live cache of one trainer's calendar, the push-event consumer that keeps it
// consistent, and the booking surface the UI drives. It holds no business
// rules of its own; validation, conflict detection and lifecycle legality
// come from the scheduler package, and the backend stays authoritative.
package schedclient

import (
	"context"
	"sync"
	"time"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/scheduler"
)

// SessionLister is the read side of the backend the store refetches from.
type SessionLister interface {
	ListSessionsForTrainer(ctx context.Context, trainerID int64) ([]models.Session, error)
}

// ScheduleStore is the single source of truth for what a trainer's calendar
// currently contains. Readers always see the most recently resolved state; a
// snapshot is fresh for at most ttl, and any push event or local mutation
// invalidates it immediately. Only resolved server responses and push events
// write to it, never speculative UI state.
type ScheduleStore struct {
	trainerID int64
	lister    SessionLister
	ttl       time.Duration

	mu        sync.Mutex
	sessions  []models.Session
	fetchedAt time.Time
	fetched   bool
	stale     bool
	listeners map[int]func([]models.Session)
	nextSub   int

	now func() time.Time
}

func NewScheduleStore(trainerID int64, lister SessionLister, ttl time.Duration) *ScheduleStore {
	return &ScheduleStore{
		trainerID: trainerID,
		lister:    lister,
		ttl:       ttl,
		listeners: make(map[int]func([]models.Session)),
		now:       time.Now,
	}
}

// Sessions returns the current schedule, refetching when the snapshot is
// missing, stale, or past its freshness window.
func (s *ScheduleStore) Sessions(ctx context.Context) ([]models.Session, error) {
	s.mu.Lock()
	fresh := s.fetched && !s.stale && s.now().Sub(s.fetchedAt) < s.ttl
	if fresh {
		snapshot := snapshotOf(s.sessions)
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()

	return s.refetch(ctx)
}

// Refresh unconditionally refetches from the backend, regardless of
// freshness. Used after transport reconnects and rejected mutations.
func (s *ScheduleStore) Refresh(ctx context.Context) error {
	_, err := s.refetch(ctx)
	return err
}

func (s *ScheduleStore) refetch(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.lister.ListSessionsForTrainer(ctx, s.trainerID)
	if err != nil {
		return nil, &scheduler.TransportError{Op: "list sessions", Err: err}
	}

	s.mu.Lock()
	s.sessions = snapshotOf(sessions)
	s.fetchedAt = s.now()
	s.fetched = true
	s.stale = false
	snapshot := snapshotOf(s.sessions)
	listeners := s.currentListeners()
	s.mu.Unlock()

	notify(listeners, snapshot)
	return snapshot, nil
}

// Invalidate marks the snapshot stale so the next read refetches. It never
// drops the data outright; a stale calendar view is better than a blank one
// while the refetch is in flight.
func (s *ScheduleStore) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// ApplyCreated inserts a session from a creation response or push event,
// keeping start-time order. Applying the same session twice replaces rather
// than duplicates it.
func (s *ScheduleStore) ApplyCreated(session models.Session) {
	s.upsert(session)
}

// ApplyUpdated replaces the stored session from an update response or push
// event. Unknown ids are inserted, so events arriving before the initial
// fetch still converge.
func (s *ScheduleStore) ApplyUpdated(session models.Session) {
	s.upsert(session)
}

// ApplyDeleted removes the session. Removing an unknown id is a no-op.
func (s *ScheduleStore) ApplyDeleted(sessionID int64) {
	s.mu.Lock()
	kept := s.sessions[:0]
	for _, session := range s.sessions {
		if session.ID != sessionID {
			kept = append(kept, session)
		}
	}
	s.sessions = kept
	snapshot := snapshotOf(s.sessions)
	listeners := s.currentListeners()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// Get returns the cached session with the given id, if present.
func (s *ScheduleStore) Get(sessionID int64) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			sessionCopy := s.sessions[i]
			return &sessionCopy, true
		}
	}
	return nil, false
}

// Subscribe registers a listener called with a fresh snapshot after every
// change. The returned function cancels the subscription.
func (s *ScheduleStore) Subscribe(fn func([]models.Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *ScheduleStore) upsert(session models.Session) {
	s.mu.Lock()
	replaced := false
	for i := range s.sessions {
		if s.sessions[i].ID == session.ID {
			s.sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		inserted := false
		for i := range s.sessions {
			after := s.sessions[i].ScheduledAt.After(session.ScheduledAt) ||
				(s.sessions[i].ScheduledAt.Equal(session.ScheduledAt) && s.sessions[i].ID > session.ID)
			if after {
				s.sessions = append(s.sessions, models.Session{})
				copy(s.sessions[i+1:], s.sessions[i:])
				s.sessions[i] = session
				inserted = true
				break
			}
		}
		if !inserted {
			s.sessions = append(s.sessions, session)
		}
	}
	snapshot := snapshotOf(s.sessions)
	listeners := s.currentListeners()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

func (s *ScheduleStore) currentListeners() []func([]models.Session) {
	listeners := make([]func([]models.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

func snapshotOf(sessions []models.Session) []models.Session {
	snapshot := make([]models.Session, len(sessions))
	copy(snapshot, sessions)
	return snapshot
}

func notify(listeners []func([]models.Session), snapshot []models.Session) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}
