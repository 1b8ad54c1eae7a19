package schedclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/scheduler"
)

type stubAPI struct {
	lister *fakeLister

	createFn func(ctx context.Context, candidate scheduler.Candidate) (*models.Session, error)
	updateFn func(ctx context.Context, sessionID int64, transition scheduler.Transition) (*models.Session, error)
	deleteFn func(ctx context.Context, sessionID int64) error

	createCalls int
	updateCalls int
	deleteCalls int
}

func (s *stubAPI) ListSessionsForTrainer(ctx context.Context, trainerID int64) ([]models.Session, error) {
	return s.lister.ListSessionsForTrainer(ctx, trainerID)
}

func (s *stubAPI) CreateSession(ctx context.Context, candidate scheduler.Candidate) (*models.Session, error) {
	s.createCalls++
	if s.createFn == nil {
		return nil, errors.New("unexpected CreateSession call")
	}
	return s.createFn(ctx, candidate)
}

func (s *stubAPI) UpdateSessionStatus(ctx context.Context, sessionID int64, transition scheduler.Transition) (*models.Session, error) {
	s.updateCalls++
	if s.updateFn == nil {
		return nil, errors.New("unexpected UpdateSessionStatus call")
	}
	return s.updateFn(ctx, sessionID, transition)
}

func (s *stubAPI) DeleteSession(ctx context.Context, sessionID int64) error {
	s.deleteCalls++
	if s.deleteFn == nil {
		return errors.New("unexpected DeleteSession call")
	}
	return s.deleteFn(ctx, sessionID)
}

func (s *stubAPI) ListEligibleMembersWithBalances(ctx context.Context, trainerID int64) ([]models.Member, error) {
	return nil, nil
}

func newTestClient(api *stubAPI) *BookingClient {
	store := NewScheduleStore(7, api.lister, time.Hour)
	client := NewBookingClient(api, 7, store)
	client.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return client
}

func validCandidate(start time.Time) scheduler.Candidate {
	return scheduler.Candidate{
		MemberID:        1,
		BranchID:        1,
		ScheduledAt:     start,
		DurationMinutes: 60,
	}
}

func TestSubmitCandidateAppliesResponseToStore(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &stubAPI{lister: &fakeLister{}}
	api.createFn = func(ctx context.Context, candidate scheduler.Candidate) (*models.Session, error) {
		if candidate.TrainerID != 7 {
			t.Fatalf("expected candidate pinned to trainer 7, got %d", candidate.TrainerID)
		}
		created := cachedSession(31, models.SessionPending, candidate.ScheduledAt)
		return &created, nil
	}
	client := newTestClient(api)

	created, err := client.SubmitCandidate(context.Background(), validCandidate(start))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if created.ID != 31 {
		t.Fatalf("expected session 31, got %d", created.ID)
	}
	if _, ok := client.store.Get(31); !ok {
		t.Fatal("expected the created session cached")
	}
}

func TestSubmitCandidateBlocksOnCachedConflictWithoutAPICall(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &stubAPI{lister: &fakeLister{sessions: []models.Session{
		cachedSession(11, models.SessionConfirmed, start),
	}}}
	client := newTestClient(api)

	candidate := validCandidate(start.Add(30 * time.Minute))
	candidate.DurationMinutes = 30

	_, err := client.SubmitCandidate(context.Background(), candidate)
	var conflictErr *scheduler.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if api.createCalls != 0 {
		t.Fatalf("a locally detected conflict must not reach the backend, got %d calls", api.createCalls)
	}
}

func TestSubmitCandidateRefreshesAfterBackendRejection(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &stubAPI{lister: &fakeLister{}}
	api.createFn = func(ctx context.Context, candidate scheduler.Candidate) (*models.Session, error) {
		blocking := cachedSession(11, models.SessionConfirmed, start)
		return nil, &scheduler.ConflictError{Blocking: &blocking}
	}
	client := newTestClient(api)

	if _, err := client.SubmitCandidate(context.Background(), validCandidate(start)); err == nil {
		t.Fatal("expected the backend rejection to surface")
	}

	// One fetch to run the local check, one more to resynchronize after the
	// rejection.
	if api.lister.calls != 2 {
		t.Fatalf("expected a refresh after rejection, got %d list calls", api.lister.calls)
	}
}

func TestSubmitCandidateRejectsReentrantSubmission(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &stubAPI{lister: &fakeLister{}}
	client := newTestClient(api)

	api.createFn = func(ctx context.Context, candidate scheduler.Candidate) (*models.Session, error) {
		// A second submission arriving while this one is unresolved.
		if _, err := client.SubmitCandidate(ctx, validCandidate(start.Add(2*time.Hour))); !errors.Is(err, ErrRequestInFlight) {
			t.Fatalf("expected ErrRequestInFlight for the overlapping submission, got %v", err)
		}
		created := cachedSession(31, models.SessionPending, candidate.ScheduledAt)
		return &created, nil
	}

	if _, err := client.SubmitCandidate(context.Background(), validCandidate(start)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if api.createCalls != 1 {
		t.Fatalf("expected exactly one backend create, got %d", api.createCalls)
	}
}

func TestRequestTransitionGuardsLocallyBeforeWire(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &stubAPI{lister: &fakeLister{sessions: []models.Session{
		cachedSession(5, models.SessionCompleted, start),
	}}}
	client := newTestClient(api)

	_, err := client.RequestTransition(context.Background(), 5, scheduler.TransitionCancel)
	var transitionErr *scheduler.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if api.updateCalls != 0 {
		t.Fatalf("an illegal transition must not reach the backend, got %d calls", api.updateCalls)
	}
}

func TestRequestTransitionRefreshesForUnknownSession(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &stubAPI{lister: &fakeLister{sessions: []models.Session{
		cachedSession(5, models.SessionPending, start),
	}}}
	api.updateFn = func(ctx context.Context, sessionID int64, transition scheduler.Transition) (*models.Session, error) {
		updated := cachedSession(sessionID, models.SessionConfirmed, start)
		return &updated, nil
	}
	client := newTestClient(api)

	// The store has never fetched; the client refreshes before deciding the
	// session does not exist.
	updated, err := client.RequestTransition(context.Background(), 5, scheduler.TransitionConfirm)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != models.SessionConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}
	session, ok := client.store.Get(5)
	if !ok || session.Status != models.SessionConfirmed {
		t.Fatalf("expected the store updated from the response, got %+v ok=%v", session, ok)
	}
}

func TestRequestTransitionRejectsSessionsOffSchedule(t *testing.T) {
	api := &stubAPI{lister: &fakeLister{}}
	client := newTestClient(api)

	_, err := client.RequestTransition(context.Background(), 404, scheduler.TransitionConfirm)
	var validationErr *scheduler.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if api.updateCalls != 0 {
		t.Fatalf("expected no backend call for an unknown session, got %d", api.updateCalls)
	}
}

func TestRequestDeleteRemovesFromStore(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &stubAPI{lister: &fakeLister{sessions: []models.Session{
		cachedSession(5, models.SessionCompleted, start),
	}}}
	api.deleteFn = func(ctx context.Context, sessionID int64) error { return nil }
	client := newTestClient(api)

	if _, err := client.Schedule(context.Background()); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := client.RequestDelete(context.Background(), 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := client.store.Get(5); ok {
		t.Fatal("expected the deleted session removed from the cache")
	}
}

func TestAvailableTransitionsForCachedSessions(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &stubAPI{lister: &fakeLister{sessions: []models.Session{
		cachedSession(5, models.SessionPending, start),
	}}}
	client := newTestClient(api)

	if _, err := client.Schedule(context.Background()); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := client.AvailableTransitions(5); len(got) != 2 {
		t.Fatalf("expected confirm and cancel for a pending session, got %v", got)
	}
	if got := client.AvailableTransitions(404); got != nil {
		t.Fatalf("expected nil for an unknown session, got %v", got)
	}
}
