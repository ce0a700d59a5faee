package cmd

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/host"
	"github.com/octoflow/mergecoord/internal/host/model"
)

func TestCheckMergedExitCode(t *testing.T) {
	assert.Equal(t, 0, checkMergedExitCode(&model.MergeState{}, nil))
	assert.Equal(t, 1, checkMergedExitCode(&model.MergeState{Merged: true}, nil))
	assert.Equal(t, 2, checkMergedExitCode(nil, host.ErrNotFound))
	assert.Equal(t, 3, checkMergedExitCode(nil, host.ErrHostUnavailable))
	assert.Equal(t, 4, checkMergedExitCode(nil, errors.Wrap(host.ErrAuthFailed, "401")))
}

func TestReadinessExitCode(t *testing.T) {
	blocked := func(code string) *engine.ReadinessReport {
		return &engine.ReadinessReport{
			State:   &model.MergeState{},
			Reasons: []engine.BlockingReason{{Code: code}},
		}
	}

	assert.Equal(t, 0, readinessExitCode(&engine.ReadinessReport{Ready: true, State: &model.MergeState{}}, nil))
	assert.Equal(t, 1, readinessExitCode(blocked(engine.CodeCIFailing), nil))
	assert.Equal(t, 1, readinessExitCode(blocked(engine.CodeRequiredChecksFailing), nil))
	assert.Equal(t, 1, readinessExitCode(blocked(engine.CodeChecksPending), nil))
	assert.Equal(t, 2, readinessExitCode(blocked(engine.CodeMergeConflict), nil))
	assert.Equal(t, 2, readinessExitCode(blocked(engine.CodeUncleanMerge), nil))
	assert.Equal(t, 3, readinessExitCode(blocked(engine.CodeUnresolvedThreads), nil))
	assert.Equal(t, 4, readinessExitCode(blocked(engine.CodeReviewRequired), nil))
	assert.Equal(t, 4, readinessExitCode(blocked(engine.CodeChangesRequested), nil))
	assert.Equal(t, 5, readinessExitCode(blocked(engine.CodeBranchBehindBase), nil))
	assert.Equal(t, 5, readinessExitCode(nil, engine.ErrReadinessIndeterminate))
}

func TestExecuteMergeExitCode(t *testing.T) {
	assert.Equal(t, 0, executeMergeExitCode(&engine.MergeResult{Success: true}, nil))
	assert.Equal(t, 1, executeMergeExitCode(nil, engine.ErrInvalidRequest))
	assert.Equal(t, 2, executeMergeExitCode(nil, host.ErrNotFound))
	assert.Equal(t, 3, executeMergeExitCode(nil, host.ErrHostUnavailable))
	assert.Equal(t, 3, executeMergeExitCode(nil, engine.ErrReadinessIndeterminate))
	assert.Equal(t, 4, executeMergeExitCode(nil, host.ErrAuthFailed))
	assert.Equal(t, 5, executeMergeExitCode(&engine.MergeResult{Success: true, AlreadyMerged: true}, nil))
	assert.Equal(t, 6, executeMergeExitCode(nil, host.ErrNotMergeable))
	assert.Equal(t, 6, executeMergeExitCode(nil, host.ErrHeadChanged))
	assert.Equal(t, 6, executeMergeExitCode(&engine.MergeResult{
		BlockingReasons: []engine.BlockingReason{{Code: engine.CodeMergeConflict}},
	}, nil))
}

func TestVerifyExitCode(t *testing.T) {
	assert.Equal(t, 0, verifyExitCode(&model.MergeState{}, nil))
	assert.Equal(t, 1, verifyExitCode(&model.MergeState{Merged: true}, nil))
	assert.Equal(t, 2, verifyExitCode(nil, host.ErrNotFound))
	assert.Equal(t, 3, verifyExitCode(nil, host.ErrHostUnavailable))
}

func TestRollbackExitCode(t *testing.T) {
	assert.Equal(t, 0, rollbackExitCode(nil))
	assert.Equal(t, 1, rollbackExitCode(engine.ErrInvalidRequest))
	assert.Equal(t, 3, rollbackExitCode(host.ErrHostUnavailable))
	assert.Equal(t, 7, rollbackExitCode(errors.Wrap(engine.ErrApprovalRequired, "force reset")))
}

func TestParseHandle(t *testing.T) {
	handle, err := parseHandle([]string{"octoflow/widgets", "42"})
	assert.NoError(t, err)
	assert.Equal(t, model.PullRequestHandle{Owner: "octoflow", Repo: "widgets", Number: 42}, handle)

	for _, args := range [][]string{
		{"octoflow", "42"},
		{"octoflow/widgets", "zero"},
		{"octoflow/widgets", "-1"},
		{"octoflow/widgets"},
	} {
		_, err := parseHandle(args)
		assert.ErrorIs(t, err, engine.ErrInvalidRequest, "args %v", args)
	}
}

func TestParseStrategy(t *testing.T) {
	for input, want := range map[string]engine.MergeStrategy{
		"merge-commit": engine.StrategyMergeCommit,
		"merge":        engine.StrategyMergeCommit,
		"MERGE_COMMIT": engine.StrategyMergeCommit,
		"squash":       engine.StrategySquash,
		"rebase":       engine.StrategyRebase,
	} {
		got, err := parseStrategy(input)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseStrategy("octopus")
	assert.ErrorIs(t, err, engine.ErrInvalidRequest)
}
