package repository

import (
	"context"
	"time"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

type MemberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (user_id, full_name, phone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, member.UserID, member.FullName, member.Phone).
		Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `
		SELECT id, user_id, full_name, phone, created_at, updated_at
		FROM members
		WHERE id = $1
	`
	var member models.Member
	err := r.db.QueryRow(ctx, query, id).Scan(
		&member.ID,
		&member.UserID,
		&member.FullName,
		&member.Phone,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetByUserID(ctx context.Context, userID int64) (*models.Member, error) {
	query := `
		SELECT id, user_id, full_name, phone, created_at, updated_at
		FROM members
		WHERE user_id = $1
	`
	var member models.Member
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&member.ID,
		&member.UserID,
		&member.FullName,
		&member.Phone,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListWithSubscriptions returns every member together with their active
// subscriptions, ordered by member id. Eligibility filtering happens in the
// scheduler core, not in SQL, so the rule lives in one place.
func (r *MemberRepository) ListWithSubscriptions(ctx context.Context) ([]models.Member, error) {
	query := `
		SELECT m.id, m.user_id, m.full_name, m.phone, m.created_at, m.updated_at,
		       s.id, s.type, s.status, s.sessions_remaining, s.valid_until, s.created_at, s.updated_at
		FROM members m
		LEFT JOIN subscriptions s ON s.member_id = m.id AND s.status = 'active'
		ORDER BY m.id ASC, s.id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		var (
			member models.Member
			subID  *int64
			sub    models.Subscription
		)
		var (
			subType      *models.SubscriptionType
			subStatus    *models.SubscriptionStatus
			subRemaining *int
			subCreatedAt *time.Time
			subUpdatedAt *time.Time
		)
		if err := rows.Scan(
			&member.ID,
			&member.UserID,
			&member.FullName,
			&member.Phone,
			&member.CreatedAt,
			&member.UpdatedAt,
			&subID,
			&subType,
			&subStatus,
			&subRemaining,
			&sub.ValidUntil,
			&subCreatedAt,
			&subUpdatedAt,
		); err != nil {
			return nil, err
		}

		if len(members) == 0 || members[len(members)-1].ID != member.ID {
			members = append(members, member)
		}
		if subID == nil {
			continue
		}
		sub.ID = *subID
		sub.MemberID = member.ID
		sub.Type = *subType
		sub.Status = *subStatus
		sub.SessionsRemaining = *subRemaining
		sub.CreatedAt = *subCreatedAt
		sub.UpdatedAt = *subUpdatedAt
		last := &members[len(members)-1]
		last.Subscriptions = append(last.Subscriptions, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

// SubscriptionsForMember returns a member's active subscriptions.
func (r *MemberRepository) SubscriptionsForMember(
	ctx context.Context,
	memberID int64,
) ([]models.Subscription, error) {
	query := `
		SELECT id, member_id, type, status, sessions_remaining, valid_until, created_at, updated_at
		FROM subscriptions
		WHERE member_id = $1 AND status = 'active'
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(
			&sub.ID,
			&sub.MemberID,
			&sub.Type,
			&sub.Status,
			&sub.SessionsRemaining,
			&sub.ValidUntil,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subs, nil
}

// DecrementSubscriptionSessions debits one session from the subscription,
// guarded so the balance never goes negative. Returns the remaining count.
func (r *MemberRepository) DecrementSubscriptionSessions(
	ctx context.Context,
	subscriptionID int64,
) (int, error) {
	query := `
		UPDATE subscriptions
		SET sessions_remaining = sessions_remaining - 1, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND sessions_remaining > 0
		RETURNING sessions_remaining
	`
	var remaining int
	if err := r.db.QueryRow(ctx, query, subscriptionID).Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}
