package telemetry

import "time"

type Stats struct {
	Period            string            `json:"period"`
	EventCounts       map[EventType]int `json:"event_counts"`
	TaskActivations   int               `json:"task_activations"`
	TaskCompletions   int               `json:"task_completions"`
	GoalsCompleted    int               `json:"goals_completed"`
	DayTicks          int               `json:"day_ticks"`
	ActivationsPerDay float64           `json:"activations_per_day"`
	CompletionsPerDay float64           `json:"completions_per_day"`
}

// CalculateStats computes pacing stats from events.
func CalculateStats(events []Event, since time.Time) Stats {
	stats := Stats{
		Period:      since.Format("2006-01-02"),
		EventCounts: make(map[EventType]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		switch event.Type {
		case EventTaskActivated:
			stats.TaskActivations++
		case EventTaskCompleted:
			stats.TaskCompletions++
		case EventGoalCompleted:
			stats.GoalsCompleted++
		case EventDayTick:
			stats.DayTicks++
		}
	}

	if stats.DayTicks > 0 {
		stats.ActivationsPerDay = float64(stats.TaskActivations) / float64(stats.DayTicks)
		stats.CompletionsPerDay = float64(stats.TaskCompletions) / float64(stats.DayTicks)
	}

	return stats
}
