package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailhead/internal/model"
)

func TestFileRepo_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir)
	require.NoError(t, err)

	created, err := repo.Create(ctx, model.Task{
		UserID: "u1", GoalID: "g1", SequenceOrder: 1, Title: "read chapter one",
	})
	require.NoError(t, err)

	_, ok, err := repo.Activate(ctx, "u1", created.ID, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)

	reloaded, err := NewFileRepo(dir)
	require.NoError(t, err)

	got, err := reloaded.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	require.NotNil(t, got.AssignedDate)
}

func TestFileRepo_ActivateIsCompareAndSwap(t *testing.T) {
	repo, err := NewFileRepo(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{
		UserID: "u1", GoalID: "g1", SequenceOrder: 1, Title: "step",
	})
	require.NoError(t, err)

	_, ok, err := repo.Activate(ctx, "u1", created.ID, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = repo.Activate(ctx, "u1", created.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}
