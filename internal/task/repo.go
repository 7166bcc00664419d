package task

import (
	"context"
	"errors"
	"time"

	"trailhead/internal/model"
)

var (
	ErrNotFound          = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid task status transition")
)

// ListFilter selects tasks belonging to one user.
//
// Queued backlog is hidden from every caller unless IncludeQueued is set.
// Only the gate and the aggregators (which need full history) set it;
// HTTP handlers never do.
type ListFilter struct {
	UserID string
	GoalID model.GoalID // "" = any goal

	// Status:
	//   "" | "all" | "active" | "pending" | "in_progress" | "completed" | "cancelled"
	Status string

	IncludeQueued bool
}

type Repo interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, userID string, id model.TaskID) (model.Task, error)
	List(ctx context.Context, filter ListFilter) ([]model.Task, error)

	// Active returns the pending/in_progress tasks for a goal. Under the
	// gate's invariant the result has at most one element.
	Active(ctx context.Context, userID string, goalID model.GoalID) ([]model.Task, error)

	// NextQueued returns the queued task with the smallest sequence order,
	// or ok=false when the backlog is exhausted.
	NextQueued(ctx context.Context, userID string, goalID model.GoalID) (model.Task, bool, error)

	// Activate flips the task from queued to pending if and only if it is
	// still queued and no pending/in_progress sibling exists for its goal,
	// stamping AssignedDate and ScheduledDate with at. It returns ok=false
	// when either condition failed, which is how a caller learns it lost a
	// concurrent advance. This is the single compare-and-swap the whole
	// system's one-active-task invariant hangs on; implementations must
	// evaluate both conditions and the write as one atomic operation.
	Activate(ctx context.Context, userID string, id model.TaskID, at time.Time) (model.Task, bool, error)

	// UpdateStatus applies a status transition after checking it against
	// model.ValidTransition. Completion stamps CompletedAt.
	UpdateStatus(ctx context.Context, userID string, id model.TaskID, to model.TaskStatus, at time.Time) (model.Task, error)

	CountByStatus(ctx context.Context, userID string, goalID model.GoalID) (map[model.TaskStatus]int, error)
}

func matchesFilter(t model.Task, filter ListFilter) bool {
	if t.UserID != filter.UserID {
		return false
	}
	if filter.GoalID != "" && t.GoalID != filter.GoalID {
		return false
	}
	if t.Status == model.StatusQueued && !filter.IncludeQueued {
		return false
	}
	switch filter.Status {
	case "", "all":
		return true
	case "active":
		return t.IsActive()
	default:
		return t.Status == model.TaskStatus(filter.Status)
	}
}
