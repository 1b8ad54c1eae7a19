package models

import "time"

type SubscriptionType string

const (
	SubscriptionPersonalTraining SubscriptionType = "personal_training"
	SubscriptionCombo            SubscriptionType = "combo"
	SubscriptionMembership       SubscriptionType = "membership"
)

// BearsPersonalTraining reports whether a subscription of this type carries a
// paid personal-training session balance.
func (t SubscriptionType) BearsPersonalTraining() bool {
	return t == SubscriptionPersonalTraining || t == SubscriptionCombo
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	ID                int64              `json:"id"`
	MemberID          int64              `json:"member_id"`
	Type              SubscriptionType   `json:"type"`
	Status            SubscriptionStatus `json:"status"`
	SessionsRemaining int                `json:"sessions_remaining"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type Member struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"user_id"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
	// SessionsRemaining is the summed balance across qualifying subscriptions,
	// populated by the eligible-members query for trainer display only.
	SessionsRemaining int            `json:"sessions_remaining,omitempty"`
	Subscriptions     []Subscription `json:"subscriptions,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (m Member) RefID() int64  { return m.ID }
func (m Member) Label() string { return m.FullName }

type Trainer struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	FullName       string    `json:"full_name"`
	Specialization *string   `json:"specialization"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (t Trainer) RefID() int64  { return t.ID }
func (t Trainer) Label() string { return t.FullName }

type Branch struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

func (b Branch) RefID() int64  { return b.ID }
func (b Branch) Label() string { return b.Name }
