// Package program holds the pure calculators behind the 365-day skincare program:
// program day, trial status, streaks, and the resulting access decision.
//
// Nothing here performs I/O. Callers pass the instant to evaluate explicitly so the
// results are deterministic and every service derives the same values.
package program

import "time"

const (
	// CalendarDays is the length of the program.
	CalendarDays = 365
	// TrialDays is the base free-trial length.
	TrialDays = 3
	// TrialExtensionDays is the one-time extension granted after the trial expires.
	TrialExtensionDays = 1
)

// MissingData selects how calculators treat a user whose registration date is unknown.
type MissingData int

const (
	// FailOpen treats an unknown registration as a fresh, active trial.
	FailOpen MissingData = iota
	// FailClosed treats an unknown registration as an expired, blocked trial.
	FailClosed
)

// Policy fixes the calendar used for every elapsed-day computation. The zero value
// counts days in UTC and fails open on missing registration data.
type Policy struct {
	Location    *time.Location
	MissingData MissingData
}

// DefaultPolicy returns the policy used when no deployment override is configured.
func DefaultPolicy() Policy {
	return Policy{Location: time.UTC, MissingData: FailOpen}
}

// NewPolicy resolves an IANA zone name into a Policy. An empty name means UTC.
func NewPolicy(zone string) (Policy, error) {
	if zone == "" {
		return DefaultPolicy(), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Policy{}, err
	}
	return Policy{Location: loc}, nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// In converts t to the program's calendar location.
func (p Policy) In(t time.Time) time.Time {
	return t.In(p.location())
}

// DateOf returns midnight of the calendar day containing t.
func (p Policy) DateOf(t time.Time) time.Time {
	local := t.In(p.location())
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.location())
}

// DaysBetween counts the calendar midnights crossed from one instant to another.
// The result is negative when to precedes from.
func (p Policy) DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.In(p.location()).Date()
	ty, tm, td := to.In(p.location()).Date()
	// Civil dates re-anchored in UTC have no DST gaps, so whole days divide evenly.
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ProgramDay returns the 1-based program day for a user registered at registeredAt,
// clamped to [1, CalendarDays]. A zero registeredAt yields day 1.
func (p Policy) ProgramDay(registeredAt, now time.Time) int {
	if registeredAt.IsZero() {
		return 1
	}
	return clamp(p.DaysBetween(registeredAt, now)+1, 1, CalendarDays)
}

// ProgramDay evaluates the program day with the default policy.
func ProgramDay(registeredAt, now time.Time) int {
	return DefaultPolicy().ProgramDay(registeredAt, now)
}

// DayDate returns the calendar date on which the given program day falls.
func (p Policy) DayDate(registeredAt time.Time, day int) time.Time {
	return p.DateOf(registeredAt).AddDate(0, 0, clamp(day, 1, CalendarDays)-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
