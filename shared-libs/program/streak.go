package program

import "sort"

// Streak counts the consecutive completed days ending yesterday, relative to
// currentDay. Today's completion never counts; the first gap ends the run.
func Streak(completedDays []int, currentDay int) int {
	if len(completedDays) == 0 {
		return 0
	}
	done := make(map[int]struct{}, len(completedDays))
	for _, d := range completedDays {
		done[d] = struct{}{}
	}

	streak := 0
	for d := currentDay - 1; d >= 1; d-- {
		if _, ok := done[d]; !ok {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive day numbers in completedDays.
func LongestStreak(completedDays []int) int {
	days := Distinct(completedDays)
	longest, run := 0, 0
	for i, d := range days {
		if i > 0 && d == days[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Distinct returns the valid program days in completedDays, deduplicated and ascending.
func Distinct(completedDays []int) []int {
	seen := make(map[int]struct{}, len(completedDays))
	out := make([]int, 0, len(completedDays))
	for _, d := range completedDays {
		if d < 1 || d > CalendarDays {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// Completed reports whether day is present in completedDays.
func Completed(completedDays []int, day int) bool {
	for _, d := range completedDays {
		if d == day {
			return true
		}
	}
	return false
}
