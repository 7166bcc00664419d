package gate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailhead/internal/clock"
	. "trailhead/internal/gate"
	"trailhead/internal/goal"
	"trailhead/internal/model"
	"trailhead/internal/task"
	"trailhead/internal/telemetry"
)

func newGateForTest() (*Gate, *goal.MemoryRepo, *task.MemoryRepo, *clock.FakeClock) {
	goals := goal.NewMemoryRepo()
	tasks := task.NewMemoryRepo()
	fake := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	g := &Gate{
		Tasks:  tasks,
		Goals:  goals,
		Clock:  fake,
		Events: telemetry.NewMemoryRepo(),
	}
	return g, goals, tasks, fake
}

func seedGoal(t *testing.T, goals *goal.MemoryRepo, tasks *task.MemoryRepo, userID string, n int) model.Goal {
	t.Helper()
	ctx := context.Background()

	g, err := goals.Create(ctx, model.Goal{UserID: userID, Title: "learn go", Status: model.GoalActive})
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		_, err := tasks.Create(ctx, model.Task{
			UserID:        userID,
			GoalID:        g.ID,
			SequenceOrder: i,
			Status:        model.StatusQueued,
			Phase:         1 + (i-1)/2,
			Title:         "step",
		})
		require.NoError(t, err)
	}
	return g
}

func activeCount(t *testing.T, tasks *task.MemoryRepo, userID string, goalID model.GoalID) int {
	t.Helper()
	active, err := tasks.Active(context.Background(), userID, goalID)
	require.NoError(t, err)
	return len(active)
}

func TestTryAdvance_ActivatesLowestSequence(t *testing.T) {
	g, goals, tasks, _ := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 5)

	activated, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
	require.NoError(t, err)
	require.NotNil(t, activated)

	assert.Equal(t, 1, activated.SequenceOrder)
	assert.Equal(t, model.StatusPending, activated.Status)
	require.NotNil(t, activated.AssignedDate)
	require.NotNil(t, activated.ScheduledDate)
	assert.Equal(t, 1, activeCount(t, tasks, "u1", gl.ID))
}

func TestTryAdvance_AlreadyActive(t *testing.T) {
	// Scenario: five tasks, the first already pending. Strict mode
	// reports it, lenient mode no-ops; neither mutates anything.
	g, goals, tasks, _ := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 5)

	first, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
	require.NoError(t, err)
	require.NotNil(t, first)

	res, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = g.TryAdvance(ctx, "u1", gl.ID, Strict)
	assert.ErrorIs(t, err, ErrAlreadyActive)

	assert.Equal(t, 1, activeCount(t, tasks, "u1", gl.ID))
	counts, err := tasks.CountByStatus(ctx, "u1", gl.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, counts[model.StatusQueued])
}

func TestTryAdvance_AfterCompletionActivatesNext(t *testing.T) {
	g, goals, tasks, fake := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 5)

	first, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
	require.NoError(t, err)
	require.NotNil(t, first)

	fake.Advance(24 * time.Hour)
	_, err = tasks.UpdateStatus(ctx, "u1", first.ID, model.StatusCompleted, fake.Now())
	require.NoError(t, err)

	second, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, 2, second.SequenceOrder)
	require.NotNil(t, second.AssignedDate)
	assert.True(t, second.AssignedDate.After(*first.AssignedDate))

	done, err := tasks.Get(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
}

func TestTryAdvance_AllCompletedFinishesGoal(t *testing.T) {
	g, goals, tasks, fake := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 5)

	for i := 0; i < 5; i++ {
		activated, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
		require.NoError(t, err)
		require.NotNil(t, activated)
		_, err = tasks.UpdateStatus(ctx, "u1", activated.ID, model.StatusCompleted, fake.Now())
		require.NoError(t, err)
		fake.Advance(24 * time.Hour)
	}

	_, err := g.TryAdvance(ctx, "u1", gl.ID, Strict)
	assert.ErrorIs(t, err, ErrGoalComplete)

	got, ok, err := goals.Get(ctx, "u1", gl.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.GoalCompleted, got.Status)

	// once completed the gate short-circuits
	_, err = g.TryAdvance(ctx, "u1", gl.ID, Strict)
	assert.ErrorIs(t, err, ErrGoalComplete)
}

func TestTryAdvance_ExhaustedButNotComplete(t *testing.T) {
	g, goals, tasks, fake := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 2)

	first, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
	require.NoError(t, err)
	_, err = tasks.UpdateStatus(ctx, "u1", first.ID, model.StatusCancelled, fake.Now())
	require.NoError(t, err)

	second, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
	require.NoError(t, err)
	_, err = tasks.UpdateStatus(ctx, "u1", second.ID, model.StatusCompleted, fake.Now())
	require.NoError(t, err)

	// one cancelled task means the goal can never be "complete"
	_, err = g.TryAdvance(ctx, "u1", gl.ID, Strict)
	assert.ErrorIs(t, err, ErrNoQueuedTasks)

	got, ok, err := goals.Get(ctx, "u1", gl.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.GoalActive, got.Status)
}

func TestTryAdvance_UpdatesCurrentPhase(t *testing.T) {
	g, goals, tasks, fake := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 4) // phases 1,1,2,2

	for i := 0; i < 3; i++ {
		activated, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
		require.NoError(t, err)
		require.NotNil(t, activated)
		if i < 2 {
			_, err = tasks.UpdateStatus(ctx, "u1", activated.ID, model.StatusCompleted, fake.Now())
			require.NoError(t, err)
		}
	}

	got, ok, err := goals.Get(ctx, "u1", gl.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.CurrentPhase)
}

func TestTryAdvance_Validation(t *testing.T) {
	g, _, _, _ := newGateForTest()
	ctx := context.Background()

	_, err := g.TryAdvance(ctx, "", "g1", Strict)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = g.TryAdvance(ctx, "u1", "  ", Strict)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = g.TryAdvance(ctx, "u1", "nope", Strict)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestTryAdvance_WrongOwnerIsNotFound(t *testing.T) {
	g, goals, tasks, _ := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 2)

	_, err := g.TryAdvance(ctx, "u2", gl.ID, Strict)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestTryAdvance_ConcurrentCallersActivateAtMostOne(t *testing.T) {
	g, goals, tasks, _ := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 5)

	const callers = 16
	var wg sync.WaitGroup
	winners := make(chan model.TaskID, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			activated, err := g.TryAdvance(ctx, "u1", gl.ID, Lenient)
			assert.NoError(t, err)
			if activated != nil {
				winners <- activated.ID
			}
		}()
	}
	wg.Wait()
	close(winners)

	won := 0
	for range winners {
		won++
	}
	assert.LessOrEqual(t, won, 1)
	assert.LessOrEqual(t, activeCount(t, tasks, "u1", gl.ID), 1)
}

func TestCanAdvance(t *testing.T) {
	g, goals, tasks, _ := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 1)

	ok, err := g.CanAdvance(ctx, "u1", gl.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = g.TryAdvance(ctx, "u1", gl.ID, Lenient)
	require.NoError(t, err)

	ok, err = g.CanAdvance(ctx, "u1", gl.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestNext_ReturnsSingleElementSlice(t *testing.T) {
	g, goals, tasks, _ := newGateForTest()
	ctx := context.Background()
	gl := seedGoal(t, goals, tasks, "u1", 2)

	svc := &AdvanceService{Gate: g}
	got, err := svc.RequestNext(ctx, "u1", gl.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.StatusPending, got[0].Status)

	_, err = svc.RequestNext(ctx, "u1", gl.ID)
	assert.ErrorIs(t, err, ErrAlreadyActive)
}
