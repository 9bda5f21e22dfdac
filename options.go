package thirdbrain

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// pollConfig holds mutable state while a polling session is configured.
type pollConfig struct {
	maxDuration time.Duration
	policy      ErrorPolicy
	clock       Clock
	logger      *slog.Logger
}

// PollOption is a function that configures a [Poll] session.
//
// PollOption implements the functional options pattern. Options return an
// error if validation fails.
//
// Built-in options: [WithMaxDuration], [WithErrorPolicy], [WithLogger],
// [WithClock].
type PollOption func(*pollConfig) error

// ErrorPolicy decides what [Poll] does when a single status check fails.
type ErrorPolicy int

const (
	// RetryOnError treats a failed check as still in progress, so a flaky
	// HTTP call does not throw away the time already spent waiting.
	RetryOnError ErrorPolicy = iota

	// AbortOnError ends the session with the check error.
	AbortOnError
)

// String returns "retry" or "abort".
func (p ErrorPolicy) String() string {
	if p == AbortOnError {
		return "abort"
	}
	return "retry"
}

// ParseErrorPolicy parses "retry" or "abort". An empty string means retry.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "retry":
		return RetryOnError, nil
	case "abort":
		return AbortOnError, nil
	default:
		return RetryOnError, errors.New(`error policy must be "retry" or "abort", got "` + s + `"`)
	}
}

// Clock is the time source of a polling session.
//
// Now must be monotonic within a session. Sleep blocks for d or until ctx is
// done and returns ctx.Err() in the latter case.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	Sleep(ctx context.Context, d time.Duration) error
}

// WithMaxDuration sets the wall-clock budget of the session.
//
// The session ends with [StateTimedOut] when the budget is spent or when the
// next scheduled wait would overrun it. Defaults to [DefaultMaxDuration].
//
// Returns an error if the duration is zero or negative.
func WithMaxDuration(d time.Duration) PollOption {
	return func(cfg *pollConfig) error {
		if d <= 0 {
			return errors.New("max duration must be positive")
		}
		cfg.maxDuration = d
		return nil
	}
}

// WithErrorPolicy sets how status check errors are handled.
// Defaults to [RetryOnError].
func WithErrorPolicy(p ErrorPolicy) PollOption {
	return func(cfg *pollConfig) error {
		if p != RetryOnError && p != AbortOnError {
			return errors.New("unknown error policy")
		}
		cfg.policy = p
		return nil
	}
}

// WithLogger sets the [slog.Logger] that receives progress records.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) PollOption {
	return func(cfg *pollConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock replaces the real clock, typically with a simulated one in tests.
//
// Returns an error if the clock is nil.
func WithClock(c Clock) PollOption {
	return func(cfg *pollConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}
