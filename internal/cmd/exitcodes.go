package cmd

import (
	"github.com/pkg/errors"

	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/host"
	"github.com/octoflow/mergecoord/internal/host/model"
)

// Exit codes per operation. The contract is stable: automation keys off
// these numbers, so they are mapped in one place and covered by tests.
const (
	exitOK = 0

	mergedExitMerged    = 1
	mergedExitNotFound  = 2
	mergedExitHostError = 3
	mergedExitAuth      = 4

	readyExitCIFailing = 1
	readyExitConflicts = 2
	readyExitThreads   = 3
	readyExitReviews   = 4
	readyExitOther     = 5

	executeExitBadParams     = 1
	executeExitNotFound      = 2
	executeExitError         = 3
	executeExitAuth          = 4
	executeExitAlreadyMerged = 5
	executeExitNotMergeable  = 6

	verifyExitMerged   = 1
	verifyExitNotFound = 2
	verifyExitError    = 3

	rollbackExitBadParams = 1
	rollbackExitError     = 3
	rollbackExitApproval  = 7
)

func checkMergedExitCode(state *model.MergeState, err error) int {
	if err != nil {
		switch {
		case errors.Is(err, host.ErrNotFound):
			return mergedExitNotFound
		case errors.Is(err, host.ErrAuthFailed):
			return mergedExitAuth
		default:
			return mergedExitHostError
		}
	}
	if state.Merged {
		return mergedExitMerged
	}
	return exitOK
}

// readinessExitCode maps the first blocking reason; the evaluator orders the
// list with the decisive reason first.
func readinessExitCode(report *engine.ReadinessReport, err error) int {
	if err != nil {
		return readyExitOther
	}
	if report.Ready {
		return exitOK
	}

	switch report.Reasons[0].Code {
	case engine.CodeCIFailing, engine.CodeRequiredChecksFailing, engine.CodeChecksPending:
		return readyExitCIFailing
	case engine.CodeMergeConflict, engine.CodeUncleanMerge:
		return readyExitConflicts
	case engine.CodeUnresolvedThreads:
		return readyExitThreads
	case engine.CodeReviewRequired, engine.CodeChangesRequested:
		return readyExitReviews
	default:
		return readyExitOther
	}
}

func executeMergeExitCode(result *engine.MergeResult, err error) int {
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidRequest):
			return executeExitBadParams
		case errors.Is(err, host.ErrNotFound):
			return executeExitNotFound
		case errors.Is(err, host.ErrAuthFailed):
			return executeExitAuth
		case errors.Is(err, host.ErrNotMergeable), errors.Is(err, host.ErrHeadChanged):
			return executeExitNotMergeable
		default:
			return executeExitError
		}
	}
	if result.AlreadyMerged {
		return executeExitAlreadyMerged
	}
	if !result.Success {
		return executeExitNotMergeable
	}
	return exitOK
}

func verifyExitCode(state *model.MergeState, err error) int {
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return verifyExitNotFound
		}
		return verifyExitError
	}
	if state.Merged {
		return verifyExitMerged
	}
	return exitOK
}

func rollbackExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch {
	case errors.Is(err, engine.ErrApprovalRequired):
		return rollbackExitApproval
	case errors.Is(err, engine.ErrInvalidRequest):
		return rollbackExitBadParams
	default:
		return rollbackExitError
	}
}
