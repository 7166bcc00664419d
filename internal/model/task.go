package model

import (
	"encoding/json"
	"time"
)

type TaskID string
type GoalID string

type TaskStatus string

const (
	StatusQueued     TaskStatus = "queued"
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// Task is one step of a goal's backlog. SequenceOrder is unique within a
// (UserID, GoalID) pair and defines backlog order. Content is an opaque
// payload from the planning collaborator; the core never inspects it.
type Task struct {
	ID            TaskID     `json:"id"`
	UserID        string     `json:"user_id"`
	GoalID        GoalID     `json:"goal_id"`
	SequenceOrder int        `json:"sequence_order"`
	Status        TaskStatus `json:"status"`
	Phase         int        `json:"phase"`

	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Topics      []string        `json:"topics,omitempty"`
	Resources   []string        `json:"resources,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`

	AssignedDate  *time.Time `json:"assigned_date,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsActive reports whether the task currently occupies the goal's single
// active slot.
func (t *Task) IsActive() bool {
	return t.Status == StatusPending || t.Status == StatusInProgress
}

// IsVisible reports whether the task may appear on user-facing read paths.
// Queued backlog is hidden until the gate assigns it.
func (t *Task) IsVisible() bool {
	return t.Status != StatusQueued
}
