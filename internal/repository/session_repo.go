package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

type CreateSessionInput struct {
	MemberID        int64
	TrainerID       int64
	BranchID        int64
	SubscriptionID  *int64
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           *string
}

type SessionListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, member_id, trainer_id, branch_id, subscription_id, scheduled_at, duration_min, status, notes, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var (
		session   models.Session
		memberID  int64
		trainerID int64
		branchID  int64
	)
	err := row.Scan(
		&session.ID,
		&memberID,
		&trainerID,
		&branchID,
		&session.SubscriptionID,
		&session.ScheduledAt,
		&session.DurationMinutes,
		&session.Status,
		&session.Notes,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Member = models.RefByID[models.Member](memberID)
	session.Trainer = models.RefByID[models.Trainer](trainerID)
	session.Branch = models.RefByID[models.Branch](branchID)
	return &session, nil
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		INSERT INTO sessions (member_id, trainer_id, branch_id, subscription_id, scheduled_at, duration_min, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.MemberID,
		input.TrainerID,
		input.BranchID,
		input.SubscriptionID,
		input.ScheduledAt,
		input.DurationMinutes,
		input.Notes,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE id = $1
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(
	ctx context.Context,
	sessionID int64,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

// List returns the actor's sessions ordered by start time, with the member
// profile embedded so calendar views can show names without extra lookups.
func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.Session, error) {
	actorColumn := "s.member_id"
	if filter.Role == "trainer" {
		actorColumn = "s.trainer_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("s.status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(s.scheduled_at + (s.duration_min * INTERVAL '1 minute')) > NOW()",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(s.scheduled_at + (s.duration_min * INTERVAL '1 minute')) <= NOW()",
		)
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.member_id, s.trainer_id, s.branch_id, s.subscription_id, s.scheduled_at, s.duration_min, s.status, s.notes, s.created_at, s.updated_at,
		       m.user_id, m.full_name, m.phone, m.created_at, m.updated_at
		FROM sessions s
		JOIN members m ON m.id = s.member_id
		WHERE %s
		ORDER BY s.scheduled_at ASC, s.id ASC
	`, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var (
			session   models.Session
			member    models.Member
			trainerID int64
			branchID  int64
		)
		if err := rows.Scan(
			&session.ID,
			&member.ID,
			&trainerID,
			&branchID,
			&session.SubscriptionID,
			&session.ScheduledAt,
			&session.DurationMinutes,
			&session.Status,
			&session.Notes,
			&session.CreatedAt,
			&session.UpdatedAt,
			&member.UserID,
			&member.FullName,
			&member.Phone,
			&member.CreatedAt,
			&member.UpdatedAt,
		); err != nil {
			return nil, err
		}
		session.Member = models.RefEmbedded(member)
		session.Trainer = models.RefByID[models.Trainer](trainerID)
		session.Branch = models.RefByID[models.Branch](branchID)
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FirstConflict returns the earliest pending or confirmed session of the
// trainer overlapping the half-open candidate interval, or nil when the slot
// is free. Touching boundaries do not conflict.
func (r *SessionRepository) FirstConflict(
	ctx context.Context,
	trainerID int64,
	requestedTime time.Time,
	durationMinutes int,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE trainer_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND scheduled_at < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
		  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2::timestamptz
		ORDER BY scheduled_at ASC, id ASC
		LIMIT 1
	`, sessionColumns)

	session, err := scanSession(r.db.QueryRow(ctx, query, trainerID, requestedTime, durationMinutes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}
