package goal

import (
	"context"
	"errors"

	"trailhead/internal/model"
)

var ErrNotFound = errors.New("goal not found")

type Repo interface {
	Create(ctx context.Context, g model.Goal) (model.Goal, error)

	// Get returns ok=false when the goal does not exist or belongs to a
	// different user.
	Get(ctx context.Context, userID string, id model.GoalID) (model.Goal, bool, error)

	List(ctx context.Context, userID string) ([]model.Goal, error)

	// ListActive returns every active goal across all users. The daily
	// scheduler iterates this set.
	ListActive(ctx context.Context) ([]model.Goal, error)

	UpdateStatus(ctx context.Context, userID string, id model.GoalID, to model.GoalStatus) (model.Goal, error)
	SetCurrentPhase(ctx context.Context, userID string, id model.GoalID, phase int) (model.Goal, error)
}
