package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a simulated clock. Sleep advances time instantly and records
// the requested duration.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// scriptedCheck returns statuses in order, repeating the last one forever.
func scriptedCheck(statuses ...string) (CheckFunc, *int) {
	calls := 0
	return func(ctx context.Context, handle string) (string, error) {
		i := calls
		calls++
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		return statuses[i], nil
	}, &calls
}

func TestInterval(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    time.Duration
	}{
		{0, 10 * time.Second},
		{5 * time.Second, 10 * time.Second},
		{9*time.Second + 999*time.Millisecond, 10 * time.Second},
		{10 * time.Second, 30 * time.Second},
		{29 * time.Second, 30 * time.Second},
		{30 * time.Second, time.Minute},
		{299 * time.Second, time.Minute},
		{300 * time.Second, 5 * time.Minute},
		{1800 * time.Second, 5 * time.Minute},
		{24 * time.Hour, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			if got := Interval(tt.elapsed); got != tt.want {
				t.Errorf("Interval(%v) = %v, want %v", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestInterval_MonotonicNonDecreasing(t *testing.T) {
	prev := Interval(0)
	for e := time.Duration(0); e <= 2000*time.Second; e += 500 * time.Millisecond {
		got := Interval(e)
		if got < prev {
			t.Fatalf("Interval(%v) = %v, smaller than previous %v", e, got, prev)
		}
		prev = got
	}
}

func TestRun_CompletesAfterNInProgress(t *testing.T) {
	const n = 6
	statuses := make([]string, 0, n+1)
	for i := 0; i < n; i++ {
		statuses = append(statuses, StatusInProgress)
	}
	statuses = append(statuses, StatusCompleted)

	check, calls := scriptedCheck(statuses...)
	clock := newFakeClock()
	p := New(0, RetryOnError, clock, testLogger())

	result, err := p.Run(context.Background(), "resp_123", check)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.State != StateCompleted {
		t.Errorf("State = %q, want %q", result.State, StateCompleted)
	}
	if *calls != n+1 {
		t.Errorf("check calls = %d, want %d", *calls, n+1)
	}
	if result.Polls != n+1 {
		t.Errorf("Polls = %d, want %d", result.Polls, n+1)
	}

	// elapsed at each poll: 0, 10, 40, 100, 160, 220
	want := []time.Duration{
		10 * time.Second,
		30 * time.Second,
		time.Minute,
		time.Minute,
		time.Minute,
		time.Minute,
	}
	got := clock.slept()
	if len(got) != len(want) {
		t.Fatalf("slept %d times (%v), want %d", len(got), got, len(want))
	}
	var total time.Duration
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, got[i], want[i])
		}
		total += got[i]
	}
	if result.Elapsed != total {
		t.Errorf("Elapsed = %v, want cumulative sleep %v", result.Elapsed, total)
	}
}

func TestRun_SchedulePastFiveMinutes(t *testing.T) {
	// 10 + 30 + 60*5 = 340s, so the 8th sleep is the first 5 minute one
	statuses := make([]string, 0, 10)
	for i := 0; i < 9; i++ {
		statuses = append(statuses, StatusInProgress)
	}
	statuses = append(statuses, StatusCompleted)

	check, _ := scriptedCheck(statuses...)
	clock := newFakeClock()
	p := New(0, RetryOnError, clock, testLogger())

	if _, err := p.Run(context.Background(), "h", check); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := clock.slept()
	want := []time.Duration{
		10 * time.Second, 30 * time.Second,
		time.Minute, time.Minute, time.Minute, time.Minute, time.Minute,
		5 * time.Minute, 5 * time.Minute,
	}
	if len(got) != len(want) {
		t.Fatalf("slept %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRun_TimesOutWithoutSleepingPastBudget(t *testing.T) {
	check, calls := scriptedCheck(StatusInProgress)
	clock := newFakeClock()
	p := New(25*time.Second, RetryOnError, clock, testLogger())

	result, err := p.Run(context.Background(), "h", check)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil for timeout", err)
	}
	if result.State != StateTimedOut {
		t.Errorf("State = %q, want %q", result.State, StateTimedOut)
	}

	var total time.Duration
	for _, d := range clock.slept() {
		total += d
	}
	if total >= 25*time.Second {
		t.Errorf("cumulative sleep = %v, must stay below 25s", total)
	}
	if *calls != 2 {
		t.Errorf("check calls = %d, want 2 (at 0s and 10s)", *calls)
	}
}

func TestRun_DefaultBudgetTimesOut(t *testing.T) {
	check, _ := scriptedCheck(StatusInProgress)
	clock := newFakeClock()
	p := New(0, RetryOnError, clock, testLogger())

	result, err := p.Run(context.Background(), "h", check)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.State != StateTimedOut {
		t.Fatalf("State = %q, want %q", result.State, StateTimedOut)
	}
	if result.Elapsed > DefaultMaxDuration {
		t.Errorf("Elapsed = %v, exceeds %v", result.Elapsed, DefaultMaxDuration)
	}
}

func TestRun_ElapsedAlreadyPastBudget(t *testing.T) {
	clock := newFakeClock()
	// the check itself takes longer than the whole budget
	check := func(ctx context.Context, handle string) (string, error) {
		clock.advance(time.Minute)
		return StatusInProgress, nil
	}
	p := New(30*time.Second, RetryOnError, clock, testLogger())

	result, err := p.Run(context.Background(), "h", check)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.State != StateTimedOut {
		t.Errorf("State = %q, want %q", result.State, StateTimedOut)
	}
	if len(clock.slept()) != 0 {
		t.Errorf("slept %v, want no sleeps", clock.slept())
	}
}

func TestRun_FailedOnThirdCall(t *testing.T) {
	check, calls := scriptedCheck(StatusInProgress, StatusInProgress, StatusFailed, StatusCompleted)
	clock := newFakeClock()
	p := New(time.Hour, RetryOnError, clock, testLogger())

	result, err := p.Run(context.Background(), "h", check)
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("Run() error = %v, want ErrJobFailed", err)
	}
	if result.State != StateFailed {
		t.Errorf("State = %q, want %q", result.State, StateFailed)
	}
	if *calls != 3 {
		t.Errorf("check calls = %d, want 3", *calls)
	}
}

func TestRun_NoStateAcrossSessions(t *testing.T) {
	clock := newFakeClock()
	p := New(25*time.Second, RetryOnError, clock, testLogger())

	first, _ := scriptedCheck(StatusInProgress)
	result, err := p.Run(context.Background(), "h", first)
	if err != nil || result.State != StateTimedOut {
		t.Fatalf("first session = (%q, %v), want timed_out", result.State, err)
	}

	second, calls := scriptedCheck(StatusCompleted)
	result, err = p.Run(context.Background(), "h", second)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if result.State != StateCompleted {
		t.Errorf("State = %q, want %q", result.State, StateCompleted)
	}
	if *calls != 1 || result.Polls != 1 {
		t.Errorf("calls = %d, polls = %d, want 1 and 1", *calls, result.Polls)
	}
	if result.Elapsed != 0 {
		t.Errorf("Elapsed = %v, want 0 for a fresh session", result.Elapsed)
	}
}

func TestRun_RetryOnErrorKeepsPolling(t *testing.T) {
	calls := 0
	check := func(ctx context.Context, handle string) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return StatusCompleted, nil
	}
	clock := newFakeClock()
	p := New(0, RetryOnError, clock, testLogger())

	result, err := p.Run(context.Background(), "h", check)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.State != StateCompleted || result.Polls != 3 {
		t.Errorf("result = %+v, want completed after 3 polls", result)
	}
	if got := len(clock.slept()); got != 2 {
		t.Errorf("slept %d times, want 2", got)
	}
}

func TestRun_AbortOnError(t *testing.T) {
	checkErr := errors.New("connection reset")
	check := func(ctx context.Context, handle string) (string, error) {
		return "", checkErr
	}
	p := New(0, AbortOnError, newFakeClock(), testLogger())

	result, err := p.Run(context.Background(), "h", check)
	if !errors.Is(err, checkErr) {
		t.Fatalf("Run() error = %v, want %v", err, checkErr)
	}
	if result.State != StatePolling {
		t.Errorf("State = %q, want %q", result.State, StatePolling)
	}
	if result.Polls != 1 {
		t.Errorf("Polls = %d, want 1", result.Polls)
	}
}

func TestRun_PermanentErrorAbortsUnderRetryPolicy(t *testing.T) {
	checkErr := errors.New("HTTP 401")
	calls := 0
	check := func(ctx context.Context, handle string) (string, error) {
		calls++
		return "", Permanent(checkErr)
	}
	p := New(0, RetryOnError, newFakeClock(), testLogger())

	_, err := p.Run(context.Background(), "h", check)
	if !errors.Is(err, checkErr) {
		t.Fatalf("Run() error = %v, want %v", err, checkErr)
	}
	if !IsPermanent(err) {
		t.Error("IsPermanent(err) = false, want true")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRun_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	check := func(ctx context.Context, handle string) (string, error) {
		cancel()
		return StatusInProgress, nil
	}
	p := New(0, RetryOnError, newFakeClock(), testLogger())

	_, err := p.Run(ctx, "h", check)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	if IsPermanent(errors.New("plain")) {
		t.Error("IsPermanent(plain error) = true, want false")
	}
}

func TestRealClock_SleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RealClock().Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() did not return promptly on a cancelled context")
	}
}
