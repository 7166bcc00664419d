// Package progress turns a goal's task history into day-by-day figures,
// streaks, badges, and calendar grids. Everything here is a pure function
// over a task slice: no I/O, no errors. Dirty historical data degrades to
// clamped or zero values because dashboards must always render.
package progress

import (
	"time"

	"trailhead/internal/model"
)

const dayLayout = "2006-01-02"

// DaySummary is one day of the backlog/completion series.
type DaySummary struct {
	Date      string `json:"date"`
	Backlog   int    `json:"backlog"`
	Completed int    `json:"completed"`
}

// PastNDaysSummary computes the last n calendar days relative to ref,
// oldest first.
//
// Backlog is cumulative with carry-forward: tasks created on-or-before
// the day minus tasks completed on-or-before the day. A task created
// three days ago and still open counts against every day since its
// creation. Completed is the count of completion timestamps falling on
// exactly that day. Days bucket in UTC.
func PastNDaysSummary(tasks []model.Task, n int, ref time.Time) []DaySummary {
	if n <= 0 {
		return []DaySummary{}
	}

	out := make([]DaySummary, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := utcDayStart(ref).AddDate(0, 0, -i)
		dayEnd := day.AddDate(0, 0, 1)

		created, completedBefore, completedOn := 0, 0, 0
		for _, t := range tasks {
			if t.CreatedAt.UTC().Before(dayEnd) {
				created++
			}
			if t.CompletedAt == nil {
				continue
			}
			done := t.CompletedAt.UTC()
			if done.Before(dayEnd) {
				completedBefore++
				if !done.Before(day) {
					completedOn++
				}
			}
		}

		backlog := created - completedBefore
		if backlog < 0 {
			backlog = 0
		}
		out = append(out, DaySummary{
			Date:      day.Format(dayLayout),
			Backlog:   backlog,
			Completed: completedOn,
		})
	}
	return out
}

// Streak counts the trailing run of days with at least one completion.
// Only the run ending on the most recent day counts; an earlier, longer
// run broken by a zero day does not.
func Streak(summaries []DaySummary) int {
	streak := 0
	for i := len(summaries) - 1; i >= 0; i-- {
		if summaries[i].Completed == 0 {
			break
		}
		streak++
	}
	return streak
}

func utcDayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
