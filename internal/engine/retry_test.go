package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoflow/mergecoord/internal/host/model"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func alwaysUnknown() fetchFunc {
	return func(context.Context) (*model.MergeState, error) {
		return &model.MergeState{MergeStateStatus: model.MergeStateUnknown}, nil
	}
}

func TestFetchSettledExhaustsBudget(t *testing.T) {
	recorder := &sleepRecorder{}
	scheduler := NewScheduler(DefaultRetryPolicy, recorder.sleep)

	fetches := 0
	fetch := func(ctx context.Context) (*model.MergeState, error) {
		fetches++
		return &model.MergeState{MergeStateStatus: model.MergeStateUnknown}, nil
	}

	_, err := scheduler.FetchSettled(context.Background(), fetch)

	require.ErrorIs(t, err, ErrReadinessIndeterminate)
	assert.Equal(t, 5, fetches, "exactly five attempts")
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, recorder.delays)

	var total time.Duration
	for _, d := range recorder.delays {
		total += d
	}
	assert.Equal(t, 31*time.Second, total)
}

func TestFetchSettledReturnsOnceSettled(t *testing.T) {
	recorder := &sleepRecorder{}
	scheduler := NewScheduler(DefaultRetryPolicy, recorder.sleep)

	fetches := 0
	fetch := func(ctx context.Context) (*model.MergeState, error) {
		fetches++
		if fetches < 3 {
			return &model.MergeState{MergeStateStatus: model.MergeStateUnknown}, nil
		}
		return &model.MergeState{MergeStateStatus: model.MergeStateMergeable}, nil
	}

	state, err := scheduler.FetchSettled(context.Background(), fetch)

	require.NoError(t, err)
	assert.Equal(t, model.MergeStateMergeable, state.MergeStateStatus)
	assert.Equal(t, 3, fetches)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, recorder.delays)
}

func TestFetchSettledReturnsMergedSnapshotImmediately(t *testing.T) {
	scheduler := NewScheduler(DefaultRetryPolicy, (&sleepRecorder{}).sleep)

	fetch := func(ctx context.Context) (*model.MergeState, error) {
		return &model.MergeState{Merged: true, MergeStateStatus: model.MergeStateUnknown}, nil
	}

	state, err := scheduler.FetchSettled(context.Background(), fetch)

	require.NoError(t, err)
	assert.True(t, state.Merged)
}

func TestFetchSettledStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewScheduler(DefaultRetryPolicy, func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	})

	_, err := scheduler.FetchSettled(ctx, alwaysUnknown())
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitMergedExhaustsWithoutError(t *testing.T) {
	recorder := &sleepRecorder{}
	scheduler := NewScheduler(DefaultRetryPolicy, recorder.sleep)

	fetch := func(ctx context.Context) (*model.MergeState, error) {
		return &model.MergeState{Merged: false, MergeStateStatus: model.MergeStateMergeable}, nil
	}

	state, err := scheduler.WaitMerged(context.Background(), fetch)

	require.NoError(t, err)
	assert.Nil(t, state, "exhaustion is not an observation")
	assert.Len(t, recorder.delays, 5)
}

func TestRetryPolicyDelayDoubles(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, InitialDelay: time.Second}
	for attempt, want := range map[int]time.Duration{
		1: 1 * time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		4: 8 * time.Second,
		5: 16 * time.Second,
	} {
		assert.Equal(t, want, policy.Delay(attempt))
	}
}
