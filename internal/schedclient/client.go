package schedclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/scheduler"
)

// ErrRequestInFlight is returned when the same mutation is submitted again
// before the first round-trip settles. The UI disables the triggering control
// for the duration; this guard backs that up at the API boundary.
var ErrRequestInFlight = errors.New("request already in flight")

// API is the backend contract the booking client drives. Implementations
// translate transport failures into scheduler.TransportError and backend
// rejections into the matching scheduler error types.
type API interface {
	ListSessionsForTrainer(ctx context.Context, trainerID int64) ([]models.Session, error)
	CreateSession(ctx context.Context, candidate scheduler.Candidate) (*models.Session, error)
	UpdateSessionStatus(ctx context.Context, sessionID int64, transition scheduler.Transition) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID int64) error
	ListEligibleMembersWithBalances(ctx context.Context, trainerID int64) ([]models.Member, error)
}

// BookingClient is the user-facing surface of the scheduling engine for one
// trainer: candidate submission with local validation and conflict checks,
// lifecycle transitions with fail-closed guards, and the live schedule view.
// Local checks are advisory; the backend's answer is final, and a rejection
// triggers a store refresh so the stale view that allowed the attempt is
// corrected.
type BookingClient struct {
	api       API
	trainerID int64
	store     *ScheduleStore
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewBookingClient(api API, trainerID int64, store *ScheduleStore) *BookingClient {
	return &BookingClient{
		api:       api,
		trainerID: trainerID,
		store:     store,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}
}

// EligibleMembers returns the members offered in the booking form. The
// backend already joins balances; the scheduler filter is re-applied locally
// so a member whose balance just hit zero disappears even from a cached
// response.
func (c *BookingClient) EligibleMembers(ctx context.Context) ([]models.Member, error) {
	members, err := c.api.ListEligibleMembersWithBalances(ctx, c.trainerID)
	if err != nil {
		return nil, err
	}
	return scheduler.EligibleMembers(members), nil
}

// SubmitCandidate validates the candidate, checks it against the cached
// schedule, and only then submits. The store is written exclusively from the
// resolved response: nothing is mutated speculatively, so a rejection needs
// no rollback.
func (c *BookingClient) SubmitCandidate(
	ctx context.Context,
	candidate scheduler.Candidate,
) (*models.Session, error) {
	release, err := c.acquire("book")
	if err != nil {
		return nil, err
	}
	defer release()

	candidate.TrainerID = c.trainerID

	sessions, err := c.store.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	if err := scheduler.CheckCandidate(sessions, candidate, c.now()); err != nil {
		return nil, err
	}

	created, err := c.api.CreateSession(ctx, candidate)
	if err != nil {
		// The backend saw something the cache did not; resynchronize so the
		// next attempt checks against fresh state.
		c.refreshAfterRejection(ctx)
		return nil, err
	}

	c.store.ApplyCreated(*created)
	return created, nil
}

// RequestTransition asks the backend to move a session through the
// lifecycle. The legality check runs locally first, mirroring the UI's
// hidden-button behavior, so illegal requests never reach the wire.
func (c *BookingClient) RequestTransition(
	ctx context.Context,
	sessionID int64,
	transition scheduler.Transition,
) (*models.Session, error) {
	release, err := c.acquire(fmt.Sprintf("transition:%d", sessionID))
	if err != nil {
		return nil, err
	}
	defer release()

	current, ok := c.store.Get(sessionID)
	if !ok {
		if err := c.store.Refresh(ctx); err != nil {
			return nil, err
		}
		if current, ok = c.store.Get(sessionID); !ok {
			return nil, &scheduler.ValidationError{Field: "session_id", Reason: "is not on this schedule"}
		}
	}
	if _, err := scheduler.Step(current.Status, transition); err != nil {
		return nil, err
	}

	updated, err := c.api.UpdateSessionStatus(ctx, sessionID, transition)
	if err != nil {
		c.refreshAfterRejection(ctx)
		return nil, err
	}

	c.store.ApplyUpdated(*updated)
	return updated, nil
}

// RequestDelete removes the record outright. Unlike Cancel there is no
// lifecycle precondition; the record only has to exist.
func (c *BookingClient) RequestDelete(ctx context.Context, sessionID int64) error {
	release, err := c.acquire(fmt.Sprintf("delete:%d", sessionID))
	if err != nil {
		return err
	}
	defer release()

	if err := c.api.DeleteSession(ctx, sessionID); err != nil {
		c.refreshAfterRejection(ctx)
		return err
	}

	c.store.ApplyDeleted(sessionID)
	return nil
}

// Schedule returns the live session list for the trainer.
func (c *BookingClient) Schedule(ctx context.Context) ([]models.Session, error) {
	return c.store.Sessions(ctx)
}

// Subscribe delivers a fresh snapshot to fn after every schedule change.
func (c *BookingClient) Subscribe(fn func([]models.Session)) func() {
	return c.store.Subscribe(fn)
}

// AvailableTransitions reports which lifecycle buttons to render for a
// cached session. Unknown sessions get none.
func (c *BookingClient) AvailableTransitions(sessionID int64) []scheduler.Transition {
	session, ok := c.store.Get(sessionID)
	if !ok {
		return nil
	}
	return scheduler.AvailableTransitions(session.Status)
}

func (c *BookingClient) acquire(key string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return nil, ErrRequestInFlight
	}
	c.inflight[key] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}, nil
}

func (c *BookingClient) refreshAfterRejection(ctx context.Context) {
	if err := c.store.Refresh(ctx); err != nil {
		// The rejection itself is already surfaced; a failed resync just
		// leaves the store marked stale for the next read.
		c.store.Invalidate()
	}
}
