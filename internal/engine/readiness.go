package engine

import (
	"github.com/octoflow/mergecoord/internal/host/model"
)

// ReadinessReport is the evaluator's verdict plus the snapshot it was
// computed from.
type ReadinessReport struct {
	Ready   bool              `json:"ready"`
	State   *model.MergeState `json:"state"`
	Reasons []BlockingReason  `json:"blocking_reasons,omitempty"`
}

// Evaluate maps a settled merge-state snapshot to a readiness verdict and an
// ordered list of blocking reasons. The switch over MergeStateStatus is
// exhaustive; a new host-reported status must be handled here before it can
// ship.
func Evaluate(state *model.MergeState, req MergeRequest) (bool, []BlockingReason) {
	var reasons []BlockingReason

	// Requested changes block unconditionally. There is no override for
	// this; it requires a new review round.
	if state.ReviewDecision == model.ReviewChangesRequested {
		reasons = append(reasons, reason(CodeChangesRequested))
	}

	if state.State == model.PullRequestClosed && !state.Merged {
		reasons = append(reasons, reason(CodePullRequestClosed))
	}

	switch state.MergeStateStatus {
	case model.MergeStateMergeable:
		switch {
		case checksFailed(state.CheckRollup) && !req.OverrideFailingChecks:
			reasons = append(reasons, reason(CodeCIFailing))
		case state.CheckRollup == model.CheckRollupPending:
			reasons = append(reasons, reason(CodeChecksPending))
		}

	case model.MergeStateConflicting:
		reasons = append(reasons, reason(CodeMergeConflict))

	case model.MergeStateBlocked:
		reasons = append(reasons, blockedReasons(state, req)...)

	case model.MergeStateBehind:
		reasons = append(reasons, reason(CodeBranchBehindBase))

	case model.MergeStateDirty:
		reasons = append(reasons, reason(CodeUncleanMerge))

	case model.MergeStateUnstable:
		if !req.OverrideFailingChecks {
			reasons = append(reasons, reason(CodeRequiredChecksFailing))
		}

	case model.MergeStateUnknown:
		// The retry scheduler settles UNKNOWN before evaluation; seeing it
		// here means the caller skipped the scheduler.
		reasons = append(reasons, reason(CodeBranchProtectionBlocked))
	}

	return len(reasons) == 0, reasons
}

// blockedReasons breaks a BLOCKED status down into its protection
// sub-reasons. When the only identified cause is unresolved threads and the
// caller set the override, the block dissolves; when no sub-reason can be
// identified the generic protection code is reported.
func blockedReasons(state *model.MergeState, req MergeRequest) []BlockingReason {
	var reasons []BlockingReason

	if state.ReviewDecision == model.ReviewRequired || state.ReviewDecision == model.ReviewNone {
		reasons = append(reasons, reason(CodeReviewRequired))
	}

	switch {
	case checksFailed(state.CheckRollup):
		reasons = append(reasons, reason(CodeCIFailing))
	case state.CheckRollup == model.CheckRollupPending:
		reasons = append(reasons, reason(CodeChecksPending))
	}

	if state.UnresolvedThreads > 0 && !req.OverrideUnresolvedThreads {
		reasons = append(reasons, reason(CodeUnresolvedThreads))
	}

	explained := len(reasons) > 0 ||
		state.ReviewDecision == model.ReviewChangesRequested ||
		(state.UnresolvedThreads > 0 && req.OverrideUnresolvedThreads)
	if !explained {
		reasons = append(reasons, reason(CodeBranchProtectionBlocked))
	}

	return reasons
}

func checksFailed(rollup model.CheckRollupState) bool {
	return rollup == model.CheckRollupFailure || rollup == model.CheckRollupError
}
