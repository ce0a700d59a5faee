package engine

// Blocking reason codes. Each carries a fixed human message naming the
// remediation; callers key automation off the code and show the message.
const (
	CodeMergeConflict           = "MERGE_CONFLICT"
	CodeCIFailing               = "CI_FAILING"
	CodeReviewRequired          = "REVIEW_REQUIRED"
	CodeChangesRequested        = "CHANGES_REQUESTED"
	CodeBranchProtectionBlocked = "BRANCH_PROTECTION_BLOCKED"
	CodeBranchBehindBase        = "BRANCH_BEHIND_BASE"
	CodeUncleanMerge            = "UNCLEAN_MERGE"
	CodeRequiredChecksFailing   = "REQUIRED_CHECKS_FAILING"
	CodeChecksPending           = "CHECKS_PENDING"
	CodeUnresolvedThreads       = "UNRESOLVED_THREADS"
	CodePullRequestClosed       = "PULL_REQUEST_CLOSED"
	CodeRateLimitCritical       = "RATE_LIMIT_CRITICAL"
)

// BlockingReason pairs a machine-readable code with a human explanation.
type BlockingReason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var reasonMessages = map[string]string{
	CodeMergeConflict:           "the source branch conflicts with the base branch; resolve the conflicts and push",
	CodeCIFailing:               "required status checks are failing; fix the failures or pass the failing-checks override",
	CodeReviewRequired:          "an approving review is required before merging",
	CodeChangesRequested:        "a reviewer has requested changes; address the review before merging",
	CodeBranchProtectionBlocked: "branch protection rules block this merge",
	CodeBranchBehindBase:        "the source branch is behind the base branch; rebase onto the base branch",
	CodeUncleanMerge:            "the merge cannot be performed cleanly; resolve locally and push",
	CodeRequiredChecksFailing:   "required status checks have not passed; fix the failures or pass the failing-checks override",
	CodeChecksPending:           "required status checks are still running; wait for them to finish",
	CodeUnresolvedThreads:       "review threads are unresolved; resolve them or pass the unresolved-threads override",
	CodePullRequestClosed:       "the pull request is closed; reopen it before merging",
	CodeRateLimitCritical:       "the host rate limit quota is nearly exhausted; retry after the quota resets",
}

func reason(code string) BlockingReason {
	return BlockingReason{Code: code, Message: reasonMessages[code]}
}
