package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition_HappyPath(t *testing.T) {
	assert.True(t, ValidTransition(StatusQueued, StatusPending))
	assert.True(t, ValidTransition(StatusPending, StatusInProgress))
	assert.True(t, ValidTransition(StatusPending, StatusCompleted))
	assert.True(t, ValidTransition(StatusInProgress, StatusCompleted))
}

func TestValidTransition_CancelFromNonTerminal(t *testing.T) {
	assert.True(t, ValidTransition(StatusQueued, StatusCancelled))
	assert.True(t, ValidTransition(StatusPending, StatusCancelled))
	assert.True(t, ValidTransition(StatusInProgress, StatusCancelled))
}

func TestValidTransition_Rejected(t *testing.T) {
	// terminal states admit nothing
	assert.False(t, ValidTransition(StatusCompleted, StatusCancelled))
	assert.False(t, ValidTransition(StatusCancelled, StatusPending))
	assert.False(t, ValidTransition(StatusCompleted, StatusPending))

	// no skipping the gate
	assert.False(t, ValidTransition(StatusQueued, StatusInProgress))
	assert.False(t, ValidTransition(StatusQueued, StatusCompleted))

	// no going backwards
	assert.False(t, ValidTransition(StatusInProgress, StatusPending))
	assert.False(t, ValidTransition(StatusPending, StatusQueued))

	// self transitions
	assert.False(t, ValidTransition(StatusPending, StatusPending))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusQueued.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
}
