package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Status labels understood by the poller. Callers normalise provider-specific
// strings into one of these before handing them over.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in_progress"
	StatusFailed     = "failed"
)

// Session states. Completed, Failed and TimedOut are terminal.
const (
	StatePolling   = "polling"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateTimedOut  = "timed_out"
)

// DefaultMaxDuration is the wall-clock ceiling of a session when none is given.
const DefaultMaxDuration = 1800 * time.Second

// ErrJobFailed is returned when the remote side reports a failed job.
var ErrJobFailed = errors.New("job failed")

// CheckFunc performs one synchronous status query for handle and returns a
// normalised status label.
//
// This is the poller-internal version that returns a string rather than the
// thirdbrain.Outcome type, avoiding circular dependencies.
type CheckFunc func(ctx context.Context, handle string) (string, error)

// ErrorPolicy decides what happens when a single status check returns an error.
type ErrorPolicy int

const (
	// RetryOnError treats a failed check as in progress and keeps polling.
	RetryOnError ErrorPolicy = iota

	// AbortOnError ends the session with the check error.
	AbortOnError
)

// Result holds the outcome of one polling session.
type Result struct {
	// Handle is the job handle that was polled.
	Handle string

	// State is the terminal state the session ended in.
	State string

	// Polls is the number of status checks performed.
	Polls int

	// Elapsed is the session time at the moment it ended.
	Elapsed time.Duration
}

// Poller runs adaptive polling sessions.
//
// A Poller carries configuration only. Each call to [Poller.Run] starts a
// fresh session with its own timer, so a handle that timed out can simply be
// polled again later.
type Poller struct {
	maxDuration time.Duration
	policy      ErrorPolicy
	clock       Clock
	logger      *slog.Logger
}

// New creates a [Poller]. A zero maxDuration means [DefaultMaxDuration]; a nil
// clock means the real clock; a nil logger means slog.Default().
func New(maxDuration time.Duration, policy ErrorPolicy, clock Clock, logger *slog.Logger) *Poller {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		maxDuration: maxDuration,
		policy:      policy,
		clock:       clock,
		logger:      logger,
	}
}

// Interval returns the delay before the next poll given the time elapsed
// since the session started.
//
// Tiers are half-open, so a boundary value selects the upper tier:
//   - < 10s: 10s
//   - 10s to < 30s: 30s
//   - 30s to < 5m: 1m
//   - >= 5m: 5m
func Interval(elapsed time.Duration) time.Duration {
	switch {
	case elapsed < 10*time.Second:
		return 10 * time.Second
	case elapsed < 30*time.Second:
		return 30 * time.Second
	case elapsed < 5*time.Minute:
		return time.Minute
	default:
		return 5 * time.Minute
	}
}

// Run polls handle until check reports a terminal status or the session
// budget is spent.
//
// Run returns a nil error for both StateCompleted and StateTimedOut; a timed
// out session is not a failure, the job may still finish. A failed job is
// returned as StateFailed with an error wrapping [ErrJobFailed]. Check errors
// follow the configured [ErrorPolicy], except errors marked with [Permanent],
// which always end the session. Context cancellation interrupts the sleep and
// returns ctx.Err().
func (p *Poller) Run(ctx context.Context, handle string, check CheckFunc) (Result, error) {
	start := p.clock.Now()
	result := Result{Handle: handle, State: StatePolling}

	for {
		if err := ctx.Err(); err != nil {
			result.Elapsed = p.clock.Since(start)
			return result, err
		}

		result.Polls++
		status, err := check(ctx, handle)
		elapsed := p.clock.Since(start)
		result.Elapsed = elapsed

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			if IsPermanent(err) || p.policy == AbortOnError {
				return result, fmt.Errorf("status check for %s: %w", handle, err)
			}
			p.logger.Warn("status check failed, will retry",
				"handle", handle,
				"poll", result.Polls,
				"error", err.Error(),
			)
			status = StatusInProgress
		}

		switch status {
		case StatusCompleted:
			result.State = StateCompleted
			p.logger.Info("job completed",
				"handle", handle,
				"polls", result.Polls,
				"elapsed", elapsed.Round(time.Second).String(),
			)
			return result, nil
		case StatusFailed:
			result.State = StateFailed
			return result, fmt.Errorf("%s: %w", handle, ErrJobFailed)
		}

		remaining := p.maxDuration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		p.logger.Debug("job in progress",
			"handle", handle,
			"poll", result.Polls,
			"status", status,
			"elapsed", elapsed.Round(time.Second).String(),
			"remaining", remaining.Round(time.Second).String(),
		)

		interval := Interval(elapsed)
		if elapsed >= p.maxDuration || elapsed+interval > p.maxDuration {
			result.State = StateTimedOut
			p.logger.Info("polling budget spent, job still in progress",
				"handle", handle,
				"polls", result.Polls,
				"elapsed", elapsed.Round(time.Second).String(),
			)
			return result, nil
		}

		if err := p.clock.Sleep(ctx, interval); err != nil {
			result.Elapsed = p.clock.Since(start)
			return result, err
		}
	}
}

// permanentError marks a check error that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that [Poller.Run] ends the session on it regardless
// of the error policy. Permanent(nil) returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with [Permanent].
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
