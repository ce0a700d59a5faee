package serializer

import (
	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/host/model"
)

// OperationResult is the structured object every operation emits: a boolean
// verdict, the merge-state status it was based on, and on failure a
// non-empty list of blocking reason codes. Never a bare boolean.
type OperationResult struct {
	Operation            string                  `json:"operation"`
	Verdict              bool                    `json:"verdict"`
	MergeStateStatus     string                  `json:"merge_state_status,omitempty"`
	Merged               bool                    `json:"merged"`
	AlreadyMerged        bool                    `json:"already_merged,omitempty"`
	MergeCommit          string                  `json:"merge_commit,omitempty"`
	CoordinationID       string                  `json:"coordination_id,omitempty"`
	VerificationTimedOut bool                    `json:"verification_timed_out,omitempty"`
	BranchDeleted        bool                    `json:"branch_deleted,omitempty"`
	BranchDeleteSkipped  string                  `json:"branch_delete_skipped,omitempty"`
	BranchRef            string                  `json:"branch_ref,omitempty"`
	BlockingReasons      []engine.BlockingReason `json:"blocking_reasons,omitempty"`
	RateRemaining        *int                    `json:"rate_remaining,omitempty"`
}

// WithRateRemaining attaches the last observed rate-limit quota and returns
// the same result for chaining.
func (r *OperationResult) WithRateRemaining(remaining int) *OperationResult {
	r.RateRemaining = &remaining
	return r
}

func FromState(operation string, state *model.MergeState) *OperationResult {
	return &OperationResult{
		Operation:        operation,
		Verdict:          state.Merged,
		Merged:           state.Merged,
		MergeStateStatus: string(state.MergeStateStatus),
		MergeCommit:      state.MergeCommitOID,
	}
}

func FromReadiness(report *engine.ReadinessReport) *OperationResult {
	return &OperationResult{
		Operation:        "check-readiness",
		Verdict:          report.Ready,
		Merged:           report.State.Merged,
		MergeStateStatus: string(report.State.MergeStateStatus),
		BlockingReasons:  report.Reasons,
	}
}

func FromMergeResult(result *engine.MergeResult, status model.MergeStateStatus) *OperationResult {
	return &OperationResult{
		Operation:            "execute-merge",
		Verdict:              result.Success,
		Merged:               result.Success && !result.VerificationTimedOut,
		MergeStateStatus:     string(status),
		AlreadyMerged:        result.AlreadyMerged,
		MergeCommit:          result.MergeCommitOID,
		CoordinationID:       result.CoordinationID,
		VerificationTimedOut: result.VerificationTimedOut,
		BranchDeleted:        result.BranchDeleted,
		BranchDeleteSkipped:  result.BranchDeleteSkipped,
		BlockingReasons:      result.BlockingReasons,
	}
}

func FromRollback(result *engine.RollbackResult) *OperationResult {
	return &OperationResult{
		Operation:      "rollback",
		Verdict:        true,
		MergeCommit:    result.CommitOID,
		BranchRef:      result.BranchRef,
		CoordinationID: result.CoordinationID,
	}
}
