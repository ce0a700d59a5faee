package engine

import (
	"context"
	"time"

	"github.com/octoflow/mergecoord/internal/host/model"
)

// RetryPolicy bounds the polling of a transient host-side state. Delays
// double from InitialDelay on every attempt.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultRetryPolicy waits 1s, 2s, 4s, 8s, 16s across five attempts.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, InitialDelay: time.Second}

// Delay returns the wait after the given 1-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.InitialDelay << uint(attempt-1)
}

// SleepFunc suspends cooperatively until the duration elapses or the context
// is cancelled. Tests inject a recording implementation.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Scheduler wraps state fetches whose readiness signal may still be
// computing, and the post-merge verification poll.
type Scheduler struct {
	policy RetryPolicy
	sleep  SleepFunc
}

func NewScheduler(policy RetryPolicy, sleep SleepFunc) *Scheduler {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}
	if sleep == nil {
		sleep = sleepWithContext
	}
	return &Scheduler{policy: policy, sleep: sleep}
}

type fetchFunc func(ctx context.Context) (*model.MergeState, error)

// FetchSettled polls until the readiness signal leaves UNKNOWN or the pull
// request turns out to be merged (a merged snapshot is always terminal).
// Exhausting the budget fails with ErrReadinessIndeterminate.
func (s *Scheduler) FetchSettled(ctx context.Context, fetch fetchFunc) (*model.MergeState, error) {
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		state, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if state.Merged || state.MergeStateStatus != model.MergeStateUnknown {
			return state, nil
		}
		if err := s.sleep(ctx, s.policy.Delay(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, ErrReadinessIndeterminate
}

// WaitMerged polls until merged == true is observed. A nil state with nil
// error means the budget ran out without an observation; the merge may still
// have happened server-side.
func (s *Scheduler) WaitMerged(ctx context.Context, fetch fetchFunc) (*model.MergeState, error) {
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		state, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if state.Merged {
			return state, nil
		}
		if err := s.sleep(ctx, s.policy.Delay(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
