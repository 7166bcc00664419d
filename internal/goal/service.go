package goal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trailhead/internal/gate"
	"trailhead/internal/model"
	"trailhead/internal/task"
	"trailhead/internal/telemetry"
)

var (
	ErrEmptyTitle   = errors.New("goal title is required")
	ErrEmptyBacklog = errors.New("goal needs at least one task")
	ErrInvalidSpec  = errors.New("invalid task spec")
)

// TaskSpec is one planned backlog entry as delivered by the planning
// collaborator. It carries no sequence number; ordering is positional and
// CreateWithBacklog assigns SequenceOrder 1..N.
type TaskSpec struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Phase       int             `json:"phase"`
	Topics      []string        `json:"topics,omitempty"`
	Resources   []string        `json:"resources,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

// Planner produces an ordered backlog for a goal. The real implementation
// calls an external content-generation service; it is deliberately out of
// the core's scope and hidden behind this seam.
type Planner interface {
	Plan(ctx context.Context, goalTitle string) ([]TaskSpec, error)
}

// StaticPlanner returns a fixed backlog. Used for seeding and tests.
type StaticPlanner struct {
	Specs []TaskSpec
}

func (p *StaticPlanner) Plan(ctx context.Context, goalTitle string) ([]TaskSpec, error) {
	_ = ctx
	_ = goalTitle
	return p.Specs, nil
}

type Service struct {
	Goals  Repo
	Tasks  task.Repo
	Gate   *gate.Gate
	Events telemetry.Recorder // optional
}

// CreateWithBacklog persists the goal with its full backlog queued, then
// runs the gate once so the first task starts pending. The opaque Content
// blob is validated here, at the boundary, and never inspected again.
func (s *Service) CreateWithBacklog(ctx context.Context, userID, title string, specs []TaskSpec) (model.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Goal{}, ErrEmptyTitle
	}
	if len(specs) == 0 {
		return model.Goal{}, ErrEmptyBacklog
	}
	for i, spec := range specs {
		if strings.TrimSpace(spec.Title) == "" {
			return model.Goal{}, fmt.Errorf("%w: task %d has no title", ErrInvalidSpec, i+1)
		}
		if len(spec.Content) > 0 && !json.Valid(spec.Content) {
			return model.Goal{}, fmt.Errorf("%w: task %d content is not valid JSON", ErrInvalidSpec, i+1)
		}
	}

	g, err := s.Goals.Create(ctx, model.Goal{
		UserID:       userID,
		Title:        title,
		Status:       model.GoalActive,
		CurrentPhase: specs[0].Phase,
	})
	if err != nil {
		return model.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	for i, spec := range specs {
		_, err := s.Tasks.Create(ctx, model.Task{
			UserID:        userID,
			GoalID:        g.ID,
			SequenceOrder: i + 1,
			Status:        model.StatusQueued,
			Phase:         spec.Phase,
			Title:         spec.Title,
			Description:   spec.Description,
			Topics:        spec.Topics,
			Resources:     spec.Resources,
			Content:       spec.Content,
		})
		if err != nil {
			return model.Goal{}, fmt.Errorf("create task %d: %w", i+1, err)
		}
	}

	// Activate the first task right away so the goal never starts with an
	// empty active slot.
	if _, err := s.Gate.TryAdvance(ctx, userID, g.ID, gate.Lenient); err != nil {
		return model.Goal{}, fmt.Errorf("activate first task: %w", err)
	}

	if s.Events != nil {
		s.Events.Record(telemetry.EventGoalCreated, telemetry.Metadata{
			"goal_id": string(g.ID),
			"tasks":   len(specs),
		})
	}
	return g, nil
}

// CreateFromPlanner asks the planner for a backlog, then persists it.
func (s *Service) CreateFromPlanner(ctx context.Context, userID, title string, planner Planner) (model.Goal, error) {
	specs, err := planner.Plan(ctx, title)
	if err != nil {
		return model.Goal{}, fmt.Errorf("plan backlog: %w", err)
	}
	return s.CreateWithBacklog(ctx, userID, title, specs)
}
