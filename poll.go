package thirdbrain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpalmerr/thirdbrain/internal/poller"
)

// DefaultMaxDuration is the polling budget used when [WithMaxDuration] is not
// given: 30 minutes.
const DefaultMaxDuration = poller.DefaultMaxDuration

// ErrJobFailed is wrapped by the error [Poll] returns when the remote side
// reports a failed job.
var ErrJobFailed = poller.ErrJobFailed

// Interval returns the adaptive delay before the next status check given the
// time elapsed since the session started: 10s below 10s, 30s below 30s, one
// minute below five minutes, five minutes after that. A value on a tier
// boundary selects the upper tier.
func Interval(elapsed time.Duration) time.Duration {
	return poller.Interval(elapsed)
}

// Poll checks the job identified by handle at adaptive intervals until it
// completes, fails, or the polling budget runs out.
//
// The returned [PollResult] always carries the terminal state:
//
//   - [StateCompleted], nil error: fetch the result with a separate call.
//   - [StateTimedOut], nil error: the job is still running. Poll again later
//     with the same handle; Poll keeps no state between sessions.
//   - [StateFailed], an error wrapping [ErrJobFailed].
//
// Errors returned by check follow the [ErrorPolicy] set via
// [WithErrorPolicy]; errors wrapped with [Permanent] always end the session.
// Cancelling ctx interrupts the wait between checks.
//
// Example:
//
//	res, err := thirdbrain.Poll(ctx, id, provider.Check,
//	    thirdbrain.WithMaxDuration(10*time.Minute),
//	    thirdbrain.WithLogger(logger),
//	)
func Poll(ctx context.Context, handle string, check StatusCheck, opts ...PollOption) (PollResult, error) {
	if check == nil {
		return PollResult{Handle: handle, State: StatePolling}, errors.New("status check cannot be nil")
	}

	cfg := &pollConfig{
		maxDuration: DefaultMaxDuration,
		policy:      RetryOnError,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return PollResult{Handle: handle, State: StatePolling}, err
		}
	}

	p := poller.New(cfg.maxDuration, toPollerPolicy(cfg.policy), cfg.clock, cfg.logger)

	res, err := p.Run(ctx, handle, func(ctx context.Context, h string) (string, error) {
		outcome, err := check(ctx, h)
		if err != nil {
			return "", err
		}
		if !outcome.Valid() {
			return "", Permanent(fmt.Errorf("status check returned unknown outcome %q", outcome))
		}
		return outcome.String(), nil
	})

	return PollResult{
		Handle:  res.Handle,
		State:   State(res.State),
		Polls:   res.Polls,
		Elapsed: res.Elapsed,
	}, err
}

// Permanent marks err as not worth retrying: [Poll] ends the session on it
// even under [RetryOnError]. Permanent(nil) returns nil.
func Permanent(err error) error {
	return poller.Permanent(err)
}

// IsPermanent reports whether err was marked with [Permanent].
func IsPermanent(err error) bool {
	return poller.IsPermanent(err)
}

func toPollerPolicy(p ErrorPolicy) poller.ErrorPolicy {
	if p == AbortOnError {
		return poller.AbortOnError
	}
	return poller.RetryOnError
}
