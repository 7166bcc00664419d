package gate

import (
	"context"
	"strings"

	"trailhead/internal/clock"
	"trailhead/internal/model"
	"trailhead/internal/task"
	"trailhead/internal/telemetry"
)

// Mode selects how TryAdvance reports the already-active case. The daily
// scheduler runs Lenient (no-op, no error); the user-facing advance runs
// Strict so the caller can tell the user why nothing happened.
type Mode int

const (
	Lenient Mode = iota
	Strict
)

// GoalStore is the slice of the goal repository the gate needs. Every
// goal repo implementation satisfies it.
type GoalStore interface {
	Get(ctx context.Context, userID string, id model.GoalID) (model.Goal, bool, error)
	UpdateStatus(ctx context.Context, userID string, id model.GoalID, to model.GoalStatus) (model.Goal, error)
	SetCurrentPhase(ctx context.Context, userID string, id model.GoalID, phase int) (model.Goal, error)
}

// Gate enforces the one-active-task-per-goal rule. All task activation in
// the system goes through TryAdvance.
type Gate struct {
	Tasks  task.Repo
	Goals  GoalStore
	Clock  clock.Clock
	Events telemetry.Recorder // optional
}

// TryAdvance activates the next queued task for the goal, if the active
// slot is free. Exactly one task mutation happens on success; failure
// paths mutate nothing except the goal-completed bookkeeping.
//
// The check for an active task and the activation write are not one
// operation here, so two concurrent callers can both reach the
// activation step. The repo's Activate is the concurrency-control point:
// it writes only when the task is still queued and no active sibling
// exists, as a single atomic operation. One caller wins, the other
// observes ok=false and takes the already-active path. The invariant
// holds without any locking in this layer.
func (g *Gate) TryAdvance(ctx context.Context, userID string, goalID model.GoalID, mode Mode) (*model.Task, error) {
	if err := validateIDs(userID, goalID); err != nil {
		return nil, err
	}

	goal, ok, err := g.Goals.Get(ctx, userID, goalID)
	if err != nil {
		return nil, storeErr("get goal", err)
	}
	if !ok {
		return nil, ErrGoalNotFound
	}
	if goal.Status == model.GoalCompleted {
		return nil, ErrGoalComplete
	}

	active, err := g.Tasks.Active(ctx, userID, goalID)
	if err != nil {
		return nil, storeErr("list active tasks", err)
	}
	if len(active) > 0 {
		if mode == Strict {
			return nil, ErrAlreadyActive
		}
		return nil, nil
	}

	next, found, err := g.Tasks.NextQueued(ctx, userID, goalID)
	if err != nil {
		return nil, storeErr("select next task", err)
	}
	if !found {
		return nil, g.finishOrReport(ctx, userID, goalID)
	}

	now := g.Clock.Now()
	activated, won, err := g.Tasks.Activate(ctx, userID, next.ID, now)
	if err != nil {
		return nil, storeErr("activate task", err)
	}
	if !won {
		// A concurrent caller activated it first.
		if mode == Strict {
			return nil, ErrAlreadyActive
		}
		return nil, nil
	}

	if activated.Phase != goal.CurrentPhase {
		if _, err := g.Goals.SetCurrentPhase(ctx, userID, goalID, activated.Phase); err != nil {
			return nil, storeErr("set current phase", err)
		}
	}

	g.record(telemetry.EventTaskActivated, telemetry.Metadata{
		"goal_id": string(goalID),
		"task_id": string(activated.ID),
		"phase":   activated.Phase,
	})
	return &activated, nil
}

// finishOrReport handles the exhausted-backlog case: a goal whose every
// task is completed becomes completed itself.
func (g *Gate) finishOrReport(ctx context.Context, userID string, goalID model.GoalID) error {
	counts, err := g.Tasks.CountByStatus(ctx, userID, goalID)
	if err != nil {
		return storeErr("count tasks", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total > 0 && counts[model.StatusCompleted] == total {
		if _, err := g.Goals.UpdateStatus(ctx, userID, goalID, model.GoalCompleted); err != nil {
			return storeErr("complete goal", err)
		}
		g.record(telemetry.EventGoalCompleted, telemetry.Metadata{"goal_id": string(goalID)})
		return ErrGoalComplete
	}
	return ErrNoQueuedTasks
}

// CanAdvance reports whether a TryAdvance call would activate a task.
func (g *Gate) CanAdvance(ctx context.Context, userID string, goalID model.GoalID) (bool, error) {
	if err := validateIDs(userID, goalID); err != nil {
		return false, err
	}

	active, err := g.Tasks.Active(ctx, userID, goalID)
	if err != nil {
		return false, storeErr("list active tasks", err)
	}
	if len(active) > 0 {
		return false, nil
	}
	_, found, err := g.Tasks.NextQueued(ctx, userID, goalID)
	if err != nil {
		return false, storeErr("select next task", err)
	}
	return found, nil
}

func (g *Gate) record(t telemetry.EventType, meta telemetry.Metadata) {
	if g.Events != nil {
		g.Events.Record(t, meta)
	}
}

func validateIDs(userID string, goalID model.GoalID) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(string(goalID)) == "" {
		return ErrValidation
	}
	return nil
}
