package scheduler

import "github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"

// SubscriptionQualifies reports whether a subscription contributes to a
// member's bookable balance: it must bear personal training, be active, and
// still have sessions left.
func SubscriptionQualifies(sub models.Subscription) bool {
	return sub.Type.BearsPersonalTraining() &&
		sub.Status == models.SubscriptionActive &&
		sub.SessionsRemaining > 0
}

// RemainingSessions sums the balance across qualifying subscriptions. The
// total is shown to the trainer for information only; which subscription gets
// debited on completion is decided by the backend.
func RemainingSessions(subs []models.Subscription) int {
	total := 0
	for _, sub := range subs {
		if SubscriptionQualifies(sub) {
			total += sub.SessionsRemaining
		}
	}
	return total
}

// IsEligible reports whether any subscription qualifies.
func IsEligible(subs []models.Subscription) bool {
	for _, sub := range subs {
		if SubscriptionQualifies(sub) {
			return true
		}
	}
	return false
}

// EligibleMembers filters the booking form's member list, preserving order
// and filling in each kept member's displayed balance. Members with no
// remaining sessions are removed entirely, not merely disabled.
func EligibleMembers(members []models.Member) []models.Member {
	eligible := make([]models.Member, 0, len(members))
	for _, member := range members {
		if !IsEligible(member.Subscriptions) {
			continue
		}
		member.SessionsRemaining = RemainingSessions(member.Subscriptions)
		eligible = append(eligible, member)
	}
	return eligible
}
