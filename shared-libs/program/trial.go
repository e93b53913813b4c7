package program

import "time"

// TrialStatus is the derived view of a user's free trial.
type TrialStatus struct {
	IsTrialActive  bool `json:"isTrialActive"`
	IsTrialExpired bool `json:"isTrialExpired"`
	RemainingDays  int  `json:"remainingDays"`
	TotalDays      int  `json:"totalDays"`
	HasExtended    bool `json:"hasExtended"`
	CanExtend      bool `json:"canExtend"`
	IsBlocked      bool `json:"isBlocked"`
}

// Trial evaluates the trial for a registration date and the number of extension days
// already granted. A zero registeredAt is resolved through p.MissingData.
func (p Policy) Trial(registeredAt time.Time, extendedDays int, now time.Time) TrialStatus {
	if extendedDays < 0 {
		extendedDays = 0
	}
	total := TrialDays + extendedDays

	if registeredAt.IsZero() {
		if p.MissingData == FailClosed {
			return TrialStatus{
				IsTrialExpired: true,
				TotalDays:      total,
				HasExtended:    extendedDays > 0,
				IsBlocked:      true,
			}
		}
		return TrialStatus{
			IsTrialActive: true,
			RemainingDays: TrialDays,
			TotalDays:     total,
			HasExtended:   extendedDays > 0,
		}
	}

	elapsed := p.DaysBetween(registeredAt, now)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}

	status := TrialStatus{
		IsTrialActive: remaining > 0,
		RemainingDays: remaining,
		TotalDays:     total,
		HasExtended:   extendedDays > 0,
	}
	status.IsTrialExpired = !status.IsTrialActive
	status.CanExtend = !status.HasExtended && status.IsTrialExpired
	status.IsBlocked = status.IsTrialExpired && !status.CanExtend
	return status
}

// Trial evaluates the trial with the default policy.
func Trial(registeredAt time.Time, extendedDays int, now time.Time) TrialStatus {
	return DefaultPolicy().Trial(registeredAt, extendedDays, now)
}
