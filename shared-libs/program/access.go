package program

import "time"

// Subscription statuses persisted on the user document.
const (
	SubscriptionNone     = "none"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionPastDue  = "past_due"
)

// Access reasons.
const (
	ReasonSubscribed = "subscribed"
	ReasonTrial      = "trial"
	ReasonExtendable = "extendable"
	ReasonBlocked    = "blocked"
)

// SubscriptionState is the subset of billing data the access decision needs.
type SubscriptionState struct {
	Status           string
	CurrentPeriodEnd time.Time
}

// Active reports whether the subscription grants access at now. A zero period end
// means the purchase does not lapse.
func (s SubscriptionState) Active(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.CurrentPeriodEnd.IsZero() || now.Before(s.CurrentPeriodEnd)
}

// Access is the allow/deny verdict for premium program features.
type Access struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Decide combines trial and subscription state into an access verdict.
func Decide(trial TrialStatus, sub SubscriptionState, now time.Time) Access {
	switch {
	case sub.Active(now):
		return Access{Allowed: true, Reason: ReasonSubscribed}
	case trial.IsTrialActive:
		return Access{Allowed: true, Reason: ReasonTrial}
	case trial.CanExtend:
		return Access{Reason: ReasonExtendable}
	default:
		return Access{Reason: ReasonBlocked}
	}
}
