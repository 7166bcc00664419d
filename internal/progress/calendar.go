package progress

import (
	"time"

	"trailhead/internal/model"
)

// DayStats is one cell of the month grid.
type DayStats struct {
	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	PendingTasks    int `json:"pending_tasks"`
}

// MonthStats buckets tasks by AssignedDate for every day of the month.
// Queued tasks never count, whatever their dates say: the hidden backlog
// stays hidden on the calendar. Every day of the month is present in the
// result so callers can render a full grid unconditionally.
func MonthStats(tasks []model.Task, year int, month time.Month) map[string]DayStats {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	out := make(map[string]DayStats, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		out[time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format(dayLayout)] = DayStats{}
	}

	for _, t := range tasks {
		if t.Status == model.StatusQueued || t.AssignedDate == nil {
			continue
		}
		key := t.AssignedDate.UTC().Format(dayLayout)
		stats, ok := out[key]
		if !ok {
			continue
		}

		stats.TotalTasks++
		switch t.Status {
		case model.StatusCompleted:
			stats.CompletedTasks++
		case model.StatusInProgress:
			stats.InProgressTasks++
		case model.StatusPending:
			stats.PendingTasks++
		}
		out[key] = stats
	}
	return out
}
