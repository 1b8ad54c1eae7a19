package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/repository"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/scheduler"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrTrainerNotFound   = errors.New("trainer not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrMemberNotEligible = errors.New("member has no remaining personal-training sessions")
	ErrNoSessionBalance  = errors.New("no subscription with remaining sessions to debit")
)

// SchedulePublisher receives an event after every committed session mutation.
// The websocket hub implements it; tests plug in a recorder.
type SchedulePublisher interface {
	Publish(event *models.ScheduleEvent)
}

type ScheduleService struct {
	db          *pgxpool.Pool
	sessionRepo *repository.SessionRepository
	memberRepo  *repository.MemberRepository
	trainerRepo *repository.TrainerRepository
	publisher   SchedulePublisher
}

func NewScheduleService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	memberRepo *repository.MemberRepository,
	trainerRepo *repository.TrainerRepository,
	publisher SchedulePublisher,
) *ScheduleService {
	return &ScheduleService{
		db:          db,
		sessionRepo: sessionRepo,
		memberRepo:  memberRepo,
		trainerRepo: trainerRepo,
		publisher:   publisher,
	}
}

type BookSessionInput struct {
	MemberID        int64
	BranchID        int64
	SubscriptionID  *int64
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           *string
}

// BookSession creates a pending session for the trainer behind actorUserID.
// The conflict check runs inside a transaction holding an advisory lock on
// the trainer, so two racing bookings cannot both pass it; the client-side
// check is advisory, this one is authoritative.
func (s *ScheduleService) BookSession(
	ctx context.Context,
	actorUserID int64,
	input BookSessionInput,
) (*models.Session, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, actorUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	candidate := scheduler.Candidate{
		MemberID:        input.MemberID,
		TrainerID:       trainer.ID,
		BranchID:        input.BranchID,
		SubscriptionID:  input.SubscriptionID,
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		Notes:           input.Notes,
	}
	if err := scheduler.ValidateCandidate(candidate, time.Now().UTC()); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByID(ctx, input.MemberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	subs, err := s.memberRepo.SubscriptionsForMember(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	if !scheduler.IsEligible(subs) {
		return nil, ErrMemberNotEligible
	}
	if input.SubscriptionID != nil && !subscriptionBelongs(subs, *input.SubscriptionID) {
		return nil, &scheduler.ValidationError{Field: "subscription_id", Reason: "does not belong to the member"}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", trainer.ID); err != nil {
		return nil, err
	}

	blocking, err := txSessionRepo.FirstConflict(
		ctx,
		trainer.ID,
		candidate.ScheduledAt,
		candidate.DurationMinutes,
	)
	if err != nil {
		return nil, err
	}
	if blocking != nil {
		return nil, &scheduler.ConflictError{Blocking: blocking}
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		MemberID:        member.ID,
		TrainerID:       trainer.ID,
		BranchID:        input.BranchID,
		SubscriptionID:  input.SubscriptionID,
		ScheduledAt:     candidate.ScheduledAt,
		DurationMinutes: candidate.DurationMinutes,
		Notes:           input.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	session.Member = models.RefEmbedded(*member)
	s.publish(models.EventSessionCreated, session)
	return session, nil
}

// CheckAvailability backs the live form validation endpoint. It returns the
// blocking session when the slot is taken, nil when it is free.
func (s *ScheduleService) CheckAvailability(
	ctx context.Context,
	trainerID int64,
	requestedTime time.Time,
	durationMinutes int,
) (*models.Session, error) {
	return s.sessionRepo.FirstConflict(ctx, trainerID, requestedTime.UTC(), durationMinutes)
}

func (s *ScheduleService) ListSessions(
	ctx context.Context,
	actorUserID int64,
	role string,
	filter repository.SessionListFilter,
) ([]models.Session, error) {
	actorID, err := s.resolveActorID(ctx, actorUserID, role)
	if err != nil {
		return nil, err
	}
	return s.sessionRepo.List(ctx, repository.SessionListFilter{
		ActorID:   actorID,
		Role:      role,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
	})
}

func (s *ScheduleService) GetSession(
	ctx context.Context,
	actorUserID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	actorID, err := s.resolveActorID(ctx, actorUserID, role)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	return session, nil
}

// UpdateStatus drives a session through the lifecycle. Trainers may confirm,
// complete and cancel their own sessions; members may only cancel theirs.
// Completion debits the linked subscription in the same transaction, so a
// crash between the two writes cannot leave the balance out of step.
func (s *ScheduleService) UpdateStatus(
	ctx context.Context,
	actorUserID int64,
	role string,
	sessionID int64,
	requestedStatus string,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	actorID, err := s.resolveActorID(ctx, actorUserID, role)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	transition, err := scheduler.ParseTransition(requestedStatus)
	if err != nil {
		return nil, err
	}
	if role == "member" && transition != scheduler.TransitionCancel {
		return nil, ErrForbidden
	}
	nextStatus, err := scheduler.Step(session.Status, transition)
	if err != nil {
		return nil, err
	}

	var updated *models.Session
	if transition == scheduler.TransitionComplete {
		updated, err = s.completeSession(ctx, session, nextStatus)
	} else {
		updated, err = s.sessionRepo.UpdateStatusIfCurrent(ctx, sessionID, session.Status, nextStatus)
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a race with another client; report against the status we saw.
			err = &scheduler.TransitionError{From: session.Status, Requested: transition}
		}
	}
	if err != nil {
		return nil, err
	}

	s.publish(models.EventSessionUpdated, updated)
	return updated, nil
}

func (s *ScheduleService) completeSession(
	ctx context.Context,
	session *models.Session,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txMemberRepo := repository.NewMemberRepository(tx)

	locked, err := txSessionRepo.GetByIDForUpdate(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if locked.Status != session.Status {
		return nil, &scheduler.TransitionError{From: locked.Status, Requested: scheduler.TransitionComplete}
	}

	debitID, err := s.subscriptionToDebit(ctx, txMemberRepo, locked)
	if err != nil {
		return nil, err
	}
	if _, err := txMemberRepo.DecrementSubscriptionSessions(ctx, debitID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSessionBalance
		}
		return nil, err
	}

	updated, err := txSessionRepo.UpdateStatusIfCurrent(ctx, session.ID, locked.Status, nextStatus)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ScheduleService) subscriptionToDebit(
	ctx context.Context,
	memberRepo *repository.MemberRepository,
	session *models.Session,
) (int64, error) {
	if session.SubscriptionID != nil {
		return *session.SubscriptionID, nil
	}
	subs, err := memberRepo.SubscriptionsForMember(ctx, session.Member.ID)
	if err != nil {
		return 0, err
	}
	for _, sub := range subs {
		if scheduler.SubscriptionQualifies(sub) {
			return sub.ID, nil
		}
	}
	return 0, ErrNoSessionBalance
}

// DeleteSession removes the record outright, as opposed to cancelling, which
// keeps it with a terminal status. Only the session's trainer may delete.
func (s *ScheduleService) DeleteSession(
	ctx context.Context,
	actorUserID int64,
	role string,
	sessionID int64,
) error {
	if role != "trainer" {
		return ErrForbidden
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	actorID, err := s.resolveActorID(ctx, actorUserID, role)
	if err != nil {
		return err
	}
	if session.Trainer.ID != actorID {
		return ErrForbidden
	}

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.publish(models.EventSessionDeleted, session)
	return nil
}

// ListEligibleMembers returns members a trainer may book, with their summed
// remaining balance. Members with no qualifying balance are omitted.
func (s *ScheduleService) ListEligibleMembers(ctx context.Context) ([]models.Member, error) {
	members, err := s.memberRepo.ListWithSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	return scheduler.EligibleMembers(members), nil
}

func (s *ScheduleService) resolveActorID(
	ctx context.Context,
	actorUserID int64,
	role string,
) (int64, error) {
	switch role {
	case "trainer":
		trainer, err := s.trainerRepo.GetByUserID(ctx, actorUserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrTrainerNotFound
			}
			return 0, err
		}
		return trainer.ID, nil
	case "member":
		member, err := s.memberRepo.GetByUserID(ctx, actorUserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrMemberNotFound
			}
			return 0, err
		}
		return member.ID, nil
	default:
		return 0, ErrForbidden
	}
}

func (s *ScheduleService) publish(kind models.ScheduleEventType, session *models.Session) {
	if s.publisher == nil {
		return
	}
	event := &models.ScheduleEvent{
		Type:      kind,
		SessionID: session.ID,
		TrainerID: session.Trainer.ID,
		MemberID:  session.Member.ID,
	}
	if kind != models.EventSessionDeleted {
		sessionCopy := *session
		event.Session = &sessionCopy
	}
	s.publisher.Publish(event)
}

func canAccessSession(role string, actorID int64, session *models.Session) bool {
	if role == "member" {
		return session.Member.ID == actorID
	}
	if role == "trainer" {
		return session.Trainer.ID == actorID
	}
	return false
}

func subscriptionBelongs(subs []models.Subscription, subscriptionID int64) bool {
	for _, sub := range subs {
		if sub.ID == subscriptionID {
			return true
		}
	}
	return false
}
