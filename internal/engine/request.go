package engine

import (
	"github.com/pkg/errors"

	"github.com/octoflow/mergecoord/internal/host"
)

// MergeStrategy is the caller-selected history shape for the merge.
type MergeStrategy string

const (
	StrategyMergeCommit MergeStrategy = "MERGE_COMMIT"
	StrategySquash      MergeStrategy = "SQUASH"
	StrategyRebase      MergeStrategy = "REBASE"
)

// Method maps the strategy onto the host's merge method vocabulary.
func (s MergeStrategy) Method() (host.MergeMethod, error) {
	switch s {
	case StrategyMergeCommit:
		return host.MergeMethodMerge, nil
	case StrategySquash:
		return host.MergeMethodSquash, nil
	case StrategyRebase:
		return host.MergeMethodRebase, nil
	default:
		return "", errors.Wrapf(ErrInvalidRequest, "unknown merge strategy %q", string(s))
	}
}

// MergeRequest is the caller's intent for one invocation. It is constructed
// once and never mutated.
type MergeRequest struct {
	Strategy                  MergeStrategy `json:"strategy"`
	DeleteSourceBranch        bool          `json:"delete_source_branch"`
	OverrideFailingChecks     bool          `json:"override_failing_checks"`
	OverrideUnresolvedThreads bool          `json:"override_unresolved_threads"`
	CommitTitle               string        `json:"commit_title,omitempty"`
	CommitMessage             string        `json:"commit_message,omitempty"`
}

// MergeResult is produced once per execution attempt and never mutated after
// it is returned.
type MergeResult struct {
	CoordinationID       string           `json:"coordination_id"`
	Success              bool             `json:"success"`
	AlreadyMerged        bool             `json:"already_merged"`
	MergeCommitOID       string           `json:"merge_commit_oid,omitempty"`
	VerificationTimedOut bool             `json:"verification_timed_out,omitempty"`
	BranchDeleted        bool             `json:"branch_deleted,omitempty"`
	BranchDeleteSkipped  string           `json:"branch_delete_skipped,omitempty"`
	BlockingReasons      []BlockingReason `json:"blocking_reasons,omitempty"`
}

// RollbackMode selects how a completed merge is undone. REVERT_COMMIT and
// HOTFIX_BRANCH are additive; FORCE_RESET rewrites history and is gated.
type RollbackMode string

const (
	RollbackRevertCommit RollbackMode = "REVERT_COMMIT"
	RollbackHotfixBranch RollbackMode = "HOTFIX_BRANCH"
	RollbackForceReset   RollbackMode = "FORCE_RESET"
)

type RollbackRequest struct {
	MergeCommitOID string       `json:"merge_commit_oid"`
	Mode           RollbackMode `json:"mode"`
	ApprovalToken  string       `json:"approval_token,omitempty"`
}

type RollbackResult struct {
	CoordinationID string       `json:"coordination_id"`
	Mode           RollbackMode `json:"mode"`
	CommitOID      string       `json:"commit_oid,omitempty"`
	BranchRef      string       `json:"branch_ref,omitempty"`
}
