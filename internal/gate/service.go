package gate

import (
	"context"

	"trailhead/internal/model"
)

// AdvanceService is the user-triggered counterpart of the daily
// scheduler. It runs the gate in strict mode so every outcome reaches
// the caller as a distinct error.
type AdvanceService struct {
	Gate *Gate
}

// RequestNext activates the next queued task for the goal. The activated
// task comes back as a single-element slice for symmetry with "today's
// active tasks" queries.
func (s *AdvanceService) RequestNext(ctx context.Context, userID string, goalID model.GoalID) ([]model.Task, error) {
	t, err := s.Gate.TryAdvance(ctx, userID, goalID, Strict)
	if err != nil {
		return nil, err
	}
	return []model.Task{*t}, nil
}
