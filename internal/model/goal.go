package model

import "time"

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

// Goal groups a user's task backlog. CurrentPhase tracks which roadmap
// phase the most recently activated task belongs to.
type Goal struct {
	ID           GoalID     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Status       GoalStatus `json:"status"`
	CurrentPhase int        `json:"current_phase"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
