package progress

type Badge struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

const (
	streakBadgeDays     = 5
	longStreakBadgeDays = 7
	completedBadgeCount = 50
	centuryBadgeCount   = 100
	efficiencyRatio     = 0.8
)

// Badges evaluates every threshold independently; all matching badges
// fire at once. Streak 9 earns both streak badges, completed 120 earns
// both volume badges.
func Badges(completedTotal, streak, totalTasks int) []Badge {
	out := make([]Badge, 0, 5)

	if streak >= streakBadgeDays {
		out = append(out, Badge{ID: "streak_5", Label: "5-Day Streak"})
	}
	if streak >= longStreakBadgeDays {
		out = append(out, Badge{ID: "streak_7", Label: "7-Day Streak"})
	}
	if completedTotal >= completedBadgeCount {
		out = append(out, Badge{ID: "fifty_completed", Label: "50 Tasks Completed"})
	}
	if completedTotal >= centuryBadgeCount {
		out = append(out, Badge{ID: "hundred_completed", Label: "100 Tasks Completed"})
	}
	if totalTasks > 0 && float64(completedTotal)/float64(totalTasks) >= efficiencyRatio {
		out = append(out, Badge{ID: "efficiency", Label: "High Completion Rate"})
	}
	return out
}
