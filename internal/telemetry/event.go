package telemetry

import "time"

type EventType string

const (
	EventGoalCreated   EventType = "goal_created"
	EventGoalCompleted EventType = "goal_completed"
	EventTaskActivated EventType = "task_activated"
	EventTaskCompleted EventType = "task_completed"
	EventDayTick       EventType = "day_tick"
)

type Metadata map[string]any

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// Recorder is the write side of the event log. Components that emit
// telemetry hold a Recorder; a nil-safe no-op keeps wiring optional.
type Recorder interface {
	Record(t EventType, meta Metadata)
}
