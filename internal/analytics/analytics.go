// Package analytics derives aggregate statistics, momentum classification,
// and recommendations from a goal snapshot. Pure functions, no I/O.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/resolutehq/resolute/internal/types"
)

// Analyze computes a report over the goal snapshot. Returns nil when no
// goals exist.
func Analyze(goals []types.Goal, now time.Time) *types.Report {
	if len(goals) == 0 {
		return nil
	}

	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)
	thirtyDaysAgo := now.Add(-30 * 24 * time.Hour)

	var progressSum, totalUpdates, active, completed int
	var recentActivity, weeklyActivity int
	counts := make(map[types.GoalCategory]int)
	progressByCategory := make(map[types.GoalCategory]int)

	for _, g := range goals {
		progressSum += g.Progress
		totalUpdates += len(g.Updates)
		if g.Progress > 0 && g.Progress < 100 {
			active++
		}
		if g.Progress == 100 {
			completed++
		}
		counts[g.Category]++
		progressByCategory[g.Category] += g.Progress

		for _, u := range g.Updates {
			if u.Date.After(thirtyDaysAgo) {
				recentActivity++
			}
			if u.Date.After(sevenDaysAgo) {
				weeklyActivity++
			}
		}
	}

	avgProgress := float64(progressSum) / float64(len(goals))

	// Category iteration follows the fixed category order so output is
	// deterministic across runs.
	var categoryProgress []types.CategoryProgress
	for _, c := range types.Categories {
		if counts[c] == 0 {
			continue
		}
		categoryProgress = append(categoryProgress, types.CategoryProgress{
			Category:    c,
			Count:       counts[c],
			AvgProgress: float64(progressByCategory[c]) / float64(counts[c]),
		})
	}

	momentum := types.MomentumLow
	switch {
	case weeklyActivity > 0:
		momentum = types.MomentumHigh
	case recentActivity > 0:
		momentum = types.MomentumMedium
	}

	return &types.Report{
		TotalGoals:       len(goals),
		AvgProgress:      avgProgress,
		TotalUpdates:     totalUpdates,
		ActiveGoals:      active,
		CompletedGoals:   completed,
		CategoryProgress: categoryProgress,
		Momentum:         momentum,
		Recommendations:  recommendations(goals, avgProgress, completed, categoryProgress, sevenDaysAgo),
		RecentActivity:   recentActivity,
		WeeklyActivity:   weeklyActivity,
		GeneratedAt:      now,
	}
}

// recommendations runs the independent advisory rules in their fixed order.
// Zero, some, or all may fire.
func recommendations(goals []types.Goal, avgProgress float64, completed int, categoryProgress []types.CategoryProgress, sevenDaysAgo time.Time) []string {
	var out []string

	stagnant := 0
	for _, g := range goals {
		if len(g.Updates) == 0 || g.Updates[len(g.Updates)-1].Date.Before(sevenDaysAgo) {
			stagnant++
		}
	}
	if stagnant > 0 {
		out = append(out, fmt.Sprintf("You have %d goals that need attention. Consider updating them!", stagnant))
	}

	if len(goals) > 1 && avgProgress < 30 {
		out = append(out, "Focus on fewer goals to make better progress. Quality over quantity!")
	}

	if completed == 0 && avgProgress > 80 {
		out = append(out, "You're so close! Push through to complete your first goal.")
	}

	if best := bestCategory(categoryProgress); best != nil && best.AvgProgress > avgProgress {
		name := capitalize(string(best.Category))
		out = append(out, fmt.Sprintf("%s goals are your strength! Apply those strategies to other areas.", name))
	}

	return out
}

// bestCategory returns the category with the highest average progress, or nil
// when there are no categories. Ties keep the earlier category.
func bestCategory(categoryProgress []types.CategoryProgress) *types.CategoryProgress {
	var best *types.CategoryProgress
	for i := range categoryProgress {
		if best == nil || categoryProgress[i].AvgProgress > best.AvgProgress {
			best = &categoryProgress[i]
		}
	}
	return best
}

// ProgressStage returns the coarse motivational stage label for a progress
// value.
func ProgressStage(progress int) string {
	switch {
	case progress < 20:
		return "Just getting started"
	case progress < 40:
		return "Building momentum"
	case progress < 60:
		return "Making solid progress"
	case progress < 80:
		return "Getting close!"
	default:
		return "Almost there!"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
