package progress

import (
	"math"

	"github.com/aknedenik/akne-denik/diary-service/internal/diary"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

// Summarize derives chart statistics for a user on programDay. completedDays comes from the
// user document; log days are merged in so a lagging document never undercounts.
func Summarize(programDay int, completedDays []int, logs []diary.Log) Stats {
	days := make([]int, 0, len(completedDays)+len(logs))
	days = append(days, completedDays...)
	for _, l := range logs {
		days = append(days, l.Day)
	}
	days = program.Distinct(days)

	stats := Stats{
		ProgramDay:     programDay,
		CompletedCount: len(days),
		CurrentStreak:  program.Streak(days, programDay),
		LongestStreak:  program.LongestStreak(days),
		Series:         make([]DayPoint, 0, len(logs)),
	}
	if programDay > 0 {
		elapsed := 0
		for _, d := range days {
			if d <= programDay {
				elapsed++
			}
		}
		stats.CompletionRate = round2(float64(elapsed) / float64(programDay))
	}
	if len(logs) == 0 {
		return stats
	}

	var moodSum, skinSum int
	skins := make([]int, 0, len(logs))
	for _, l := range logs {
		moodSum += l.Mood
		skinSum += l.SkinRating
		skins = append(skins, l.SkinRating)
		if len(l.Photos) > 0 {
			stats.PhotoDays++
		}
		stats.Series = append(stats.Series, DayPoint{
			Day:        l.Day,
			Date:       l.Date,
			Mood:       l.Mood,
			SkinRating: l.SkinRating,
			Photos:     len(l.Photos),
		})
	}
	n := float64(len(logs))
	stats.AverageMood = round2(float64(moodSum) / n)
	stats.AverageSkinRating = round2(float64(skinSum) / n)
	stats.SkinTrend = skinTrend(skins)
	return stats
}

// skinTrend compares the mean of the last window with the first; positive means improving.
func skinTrend(ratings []int) float64 {
	k := len(ratings) / 2
	if k > TrendWindow {
		k = TrendWindow
	}
	if k == 0 {
		return 0
	}
	return round2(mean(ratings[len(ratings)-k:]) - mean(ratings[:k]))
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
