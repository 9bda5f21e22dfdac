// Package poller implements adaptive job polling for thirdbrain.
//
// This package is internal to thirdbrain. Given an opaque job handle and a
// status check, it queries the job on a fixed four-tier backoff schedule
// until the job completes, fails, or the session budget runs out.
//
// The main components are:
//
//   - [Poller]: runs polling sessions with a timeout and an error policy
//   - [Interval]: the tier table mapping elapsed time to the next delay
//   - [Clock]: time source and blocking sleep, replaceable in tests
//
// Sessions are sequential and keep no state between calls. Users of the
// thirdbrain library go through thirdbrain.Poll instead of this package.
package poller
