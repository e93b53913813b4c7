package user

import "time"

type systemClock struct{}

// NewSystemClock returns a Clock implementation backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func cloneProfile(p Profile) Profile {
	p.CompletedDays = append([]int{}, p.CompletedDays...)
	if p.Onboarding != nil {
		o := *p.Onboarding
		o.Goals = append([]string(nil), o.Goals...)
		p.Onboarding = &o
	}
	return p
}
