package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/octoflow/mergecoord/internal/host"
	"github.com/octoflow/mergecoord/internal/host/model"
)

// Engine coordinates one pull-request-merge decision per invocation. Steps
// within an invocation run strictly sequentially: each one acts on the state
// the previous step freshly observed.
type Engine struct {
	host  host.Client
	retry *Scheduler
	log   *logrus.Logger
}

type Option func(*Engine)

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(e *Engine) {
		e.retry = NewScheduler(policy, nil)
	}
}

// WithScheduler replaces the whole scheduler, including the suspension
// mechanism. Tests use it with a fake sleeper.
func WithScheduler(s *Scheduler) Option {
	return func(e *Engine) {
		e.retry = s
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func New(client host.Client, opts ...Option) *Engine {
	e := &Engine{
		host:  client,
		retry: NewScheduler(DefaultRetryPolicy, nil),
		log:   logrus.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) fetch(handle model.PullRequestHandle) fetchFunc {
	return func(ctx context.Context) (*model.MergeState, error) {
		return e.host.MergeState(ctx, handle)
	}
}

// QuotaRemaining reports the host's last observed remaining rate-limit
// quota. ok is false until a response has been seen.
func (e *Engine) QuotaRemaining() (remaining int, ok bool) {
	remaining, _, ok = e.host.Quota().Snapshot()
	return remaining, ok
}

// CheckMerged answers whether the pull request is already merged, from a
// single authoritative read.
func (e *Engine) CheckMerged(ctx context.Context, handle model.PullRequestHandle) (*model.MergeState, error) {
	return e.host.MergeState(ctx, handle)
}

// VerifyCompletion re-queries the merged flag once, without retries. Callers
// poll it after a verification timeout instead of re-attempting the merge.
func (e *Engine) VerifyCompletion(ctx context.Context, handle model.PullRequestHandle) (*model.MergeState, error) {
	return e.host.MergeState(ctx, handle)
}

// CheckReadiness settles a transient readiness signal and evaluates the
// decision table against it.
func (e *Engine) CheckReadiness(ctx context.Context, handle model.PullRequestHandle, req MergeRequest) (*ReadinessReport, error) {
	state, err := e.retry.FetchSettled(ctx, e.fetch(handle))
	if err != nil {
		return nil, err
	}

	ready, reasons := Evaluate(state, req)
	return &ReadinessReport{Ready: ready, State: state, Reasons: reasons}, nil
}
