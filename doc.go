// Package thirdbrain provides adaptive polling of asynchronous third-party
// jobs, plus the small helpers the thirdbrain command-line tools share.
//
// Several of the APIs thirdbrain talks to (deep research endpoints, a
// presentation generator) accept a request, hand back an opaque job handle,
// and finish minutes later. [Poll] waits for such a job on a fixed backoff
// schedule and reports how the wait ended.
//
// # Quick Start
//
//	check := func(ctx context.Context, id string) (thirdbrain.Outcome, error) {
//	    resp, err := client.Status(ctx, id)
//	    if err != nil {
//	        return "", err
//	    }
//	    return normalize(resp.Status), nil
//	}
//
//	res, err := thirdbrain.Poll(ctx, id, check)
//	switch {
//	case err != nil:
//	    // job failed, or a check error ended the session
//	case res.State == thirdbrain.StateTimedOut:
//	    // still running; poll again later with the same id
//	default:
//	    // completed; fetch the result
//	}
//
// # Schedule
//
// The delay before the next check depends only on the time elapsed since the
// session started (see [Interval]):
//
//   - under 10s: every 10s
//   - 10s to 30s: every 30s
//   - 30s to 5m: every minute
//   - 5m and later: every 5 minutes
//
// The session ends with [StateTimedOut] once the budget is spent or the next
// wait would overrun it. The budget defaults to 30 minutes.
//
// # Extractors
//
// Third-party responses are decoded into generic maps. [JSONField],
// [FirstMatch] and [FirstField] pull values out of them with fallbacks, and
// [NewStatusNormalizer] maps provider status labels onto an [Outcome].
//
// # Architecture
//
//   - internal/poller: the polling session and its clock
//   - internal/httpclient: JSON HTTP client shared by the adapters
//   - internal/store: ledger of submitted job handles
//   - research, gamma, imagegen: provider adapters
//   - config: YAML configuration and .env loading
//   - cmd/thirdbrain: the CLI
package thirdbrain
