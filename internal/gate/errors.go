package gate

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects malformed identifiers before any store access.
	ErrValidation = errors.New("invalid identifier")

	// ErrAlreadyActive means a pending or in-progress task already
	// occupies the goal's active slot. Recoverable: finish that task.
	ErrAlreadyActive = errors.New("a task is already active for this goal")

	// ErrNoQueuedTasks means the backlog is exhausted but the goal is not
	// fully completed. This indicates inconsistent data and is reported,
	// not retried.
	ErrNoQueuedTasks = errors.New("no queued tasks remain for this goal")

	// ErrGoalComplete means every task is completed. Not an error to the
	// end user, but distinct from ErrNoQueuedTasks for correct messaging.
	ErrGoalComplete = errors.New("goal is complete")

	// ErrGoalNotFound covers both unknown goals and goals owned by
	// someone else.
	ErrGoalNotFound = errors.New("goal not found")
)

// StoreError wraps an underlying store failure. TryAdvance is idempotent,
// so a call that fails with a StoreError is safe to retry whole.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// IsTransient reports whether err came from the store layer rather than
// from gate semantics.
func IsTransient(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
