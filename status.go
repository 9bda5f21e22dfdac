package thirdbrain

import (
	"context"
	"time"
)

// Outcome is the normalised status of a remote job at one observation point.
//
// Outcome is a string type holding one of three predefined values:
// [OutcomeCompleted], [OutcomeInProgress] or [OutcomeFailed]. Provider
// adapters map their own labels (e.g. "succeeded", "processing", "error")
// onto these before handing them to [Poll].
type Outcome string

const (
	// OutcomeCompleted indicates the job finished successfully and its
	// result can be fetched.
	OutcomeCompleted Outcome = "completed"

	// OutcomeInProgress indicates the job has not reached a terminal state.
	OutcomeInProgress Outcome = "in_progress"

	// OutcomeFailed indicates the remote side reported a failure.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Valid reports whether o is one of the three predefined outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCompleted, OutcomeInProgress, OutcomeFailed:
		return true
	default:
		return false
	}
}

// State is the state of a polling session.
//
// A session starts in [StatePolling] and ends in exactly one of the terminal
// states [StateCompleted], [StateFailed] or [StateTimedOut].
type State string

const (
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether no further transition can occur in the session.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// StatusCheck performs one synchronous status query for a job handle.
//
// Implementations must be idempotent: the poller calls it repeatedly, and a
// caller may start a new session with the same handle after a timeout.
type StatusCheck func(ctx context.Context, handle string) (Outcome, error)

// PollResult holds the outcome of one polling session.
type PollResult struct {
	// Handle is the job handle that was polled.
	Handle string

	// State is the state the session ended in.
	State State

	// Polls is the number of status checks performed.
	Polls int

	// Elapsed is the session time when it ended.
	Elapsed time.Duration
}
