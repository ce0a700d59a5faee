package engine

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/go-github/v54/github"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoflow/mergecoord/internal/host"
	"github.com/octoflow/mergecoord/internal/host/hosttest"
	"github.com/octoflow/mergecoord/internal/host/model"
)

var testHandle = model.PullRequestHandle{Owner: "octoflow", Repo: "widgets", Number: 42}

func newTestEngine(fake *hosttest.FakeClient) *Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)

	noSleep := func(context.Context, time.Duration) error { return nil }
	return New(fake,
		WithLogger(log),
		WithScheduler(NewScheduler(DefaultRetryPolicy, noSleep)),
	)
}

func readyState() *model.MergeState {
	return &model.MergeState{
		State:            model.PullRequestOpen,
		Title:            "Add widget pipeline",
		Body:             "Implements the widget pipeline.",
		HeadOID:          "head-1",
		HeadRefName:      "feature/widgets",
		BaseRefName:      "main",
		Mergeability:     model.MergeableStateMergeable,
		MergeStateStatus: model.MergeStateMergeable,
		ReviewDecision:   model.ReviewApproved,
		CheckRollup:      model.CheckRollupSuccess,
	}
}

func mergedState(oid string) *model.MergeState {
	return &model.MergeState{
		State:            model.PullRequestMerged,
		Merged:           true,
		MergeCommitOID:   oid,
		MergeStateStatus: model.MergeStateMergeable,
	}
}

func TestExecuteSquashMerge(t *testing.T) {
	fake := hosttest.NewFakeClient(readyState(), mergedState("m-1"))
	fake.MergeOID = "m-1"
	fake.Commits = []model.Commit{
		{OID: "c1", Author: model.CommitAuthor{Name: "Alice", Email: "alice@example.com"}},
		{OID: "c2", Author: model.CommitAuthor{Name: "Bob", Email: "bob@example.com"}},
		{OID: "c3", Author: model.CommitAuthor{Name: "Alice", Email: "alice@example.com"}},
	}
	e := newTestEngine(fake)

	result, err := e.Execute(context.Background(), testHandle, MergeRequest{Strategy: StrategySquash})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.AlreadyMerged)
	assert.Equal(t, "m-1", result.MergeCommitOID)
	assert.False(t, result.VerificationTimedOut)
	assert.NotEmpty(t, result.CoordinationID)

	require.Len(t, fake.MergeCalls, 1)
	call := fake.MergeCalls[0]
	assert.Equal(t, host.MergeMethodSquash, call.Method)
	assert.Equal(t, "head-1", call.ExpectedHeadOID, "merge must be pinned to the observed head")
	assert.Equal(t, "Add widget pipeline (#42)", call.CommitTitle)
	assert.Contains(t, call.CommitMessage, "Implements the widget pipeline.")
	assert.Contains(t, call.CommitMessage, "Co-authored-by: Bob <bob@example.com>")
	assert.NotContains(t, call.CommitMessage, "alice@example.com", "the primary author is not a co-author")
}

func TestExecuteIsIdempotent(t *testing.T) {
	fake := hosttest.NewFakeClient(mergedState("m-9"))
	e := newTestEngine(fake)

	first, err := e.Execute(context.Background(), testHandle, MergeRequest{Strategy: StrategyMergeCommit})
	require.NoError(t, err)
	second, err := e.Execute(context.Background(), testHandle, MergeRequest{Strategy: StrategyMergeCommit})
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadyMerged)
	assert.Equal(t, "m-9", second.MergeCommitOID)
	assert.Zero(t, fake.MutationCount(), "already merged must not mutate the host")
}

func TestExecuteNeverMergesWhenBlocked(t *testing.T) {
	state := readyState()
	state.MergeStateStatus = model.MergeStateConflicting
	fake := hosttest.NewFakeClient(state)
	e := newTestEngine(fake)

	result, err := e.Execute(context.Background(), testHandle, MergeRequest{Strategy: StrategyMergeCommit})

	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.BlockingReasons, 1)
	assert.Equal(t, CodeMergeConflict, result.BlockingReasons[0].Code)
	assert.Zero(t, fake.MutationCount(), "blocked verdicts must not reach the merge call")
}

func TestExecuteSurfacesHeadChanged(t *testing.T) {
	fake := hosttest.NewFakeClient(readyState())
	fake.MergeErr = host.ErrHeadChanged
	e := newTestEngine(fake)

	_, err := e.Execute(context.Background(), testHandle, MergeRequest{Strategy: StrategyMergeCommit})

	require.ErrorIs(t, err, host.ErrHeadChanged)
}

func TestExecuteFlagsVerificationTimeout(t *testing.T) {
	// The host accepts the merge but the merged flag never becomes visible
	// within the verification budget.
	fake := hosttest.NewFakeClient(readyState())
	fake.MergeOID = "m-2"
	e := newTestEngine(fake)

	result, err := e.Execute(context.Background(), testHandle, MergeRequest{Strategy: StrategyMergeCommit})

	require.NoError(t, err)
	assert.True(t, result.Success, "an unverified merge is not a failure")
	assert.True(t, result.VerificationTimedOut)
	assert.Equal(t, "m-2", result.MergeCommitOID)
}

func TestExecuteDeletesSourceBranch(t *testing.T) {
	fake := hosttest.NewFakeClient(readyState(), mergedState("m-3"))
	fake.MergeOID = "m-3"
	e := newTestEngine(fake)

	result, err := e.Execute(context.Background(), testHandle, MergeRequest{
		Strategy:           StrategyMergeCommit,
		DeleteSourceBranch: true,
	})

	require.NoError(t, err)
	assert.True(t, result.BranchDeleted)
	assert.Equal(t, []string{"feature/widgets"}, fake.DeletedBranches)
}

func TestExecuteKeepsBranchWithDependents(t *testing.T) {
	fake := hosttest.NewFakeClient(readyState(), mergedState("m-4"))
	fake.MergeOID = "m-4"
	fake.DependentPRs = 2
	e := newTestEngine(fake)

	result, err := e.Execute(context.Background(), testHandle, MergeRequest{
		Strategy:           StrategyMergeCommit,
		DeleteSourceBranch: true,
	})

	require.NoError(t, err)
	assert.False(t, result.BranchDeleted)
	assert.NotEmpty(t, result.BranchDeleteSkipped)
	assert.Empty(t, fake.DeletedBranches)
}

func TestExecuteRejectsUnknownStrategy(t *testing.T) {
	fake := hosttest.NewFakeClient(readyState())
	e := newTestEngine(fake)

	_, err := e.Execute(context.Background(), testHandle, MergeRequest{Strategy: "OCTOPUS"})

	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, fake.FetchCount, "invalid requests are rejected before any host call")
}

func TestExecuteGuardsRateLimit(t *testing.T) {
	fake := hosttest.NewFakeClient(readyState())
	fake.Quota().Update(github.Rate{Limit: 5000, Remaining: 3})
	e := newTestEngine(fake)

	_, err := e.Execute(context.Background(), testHandle, MergeRequest{Strategy: StrategyMergeCommit})

	require.ErrorIs(t, err, host.ErrRateLimitCritical)
}
