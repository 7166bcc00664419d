package model

// IsTerminal reports whether a task status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ValidTransition is the task state machine. Every status write in the
// system is checked against this table before it hits a store.
//
//	queued      -> pending
//	pending     -> in_progress | completed
//	in_progress -> completed
//	<non-terminal> -> cancelled
func ValidTransition(from, to TaskStatus) bool {
	if from == to {
		return false
	}
	if to == StatusCancelled {
		return !from.IsTerminal()
	}
	switch from {
	case StatusQueued:
		return to == StatusPending
	case StatusPending:
		return to == StatusInProgress || to == StatusCompleted
	case StatusInProgress:
		return to == StatusCompleted
	default:
		return false
	}
}
