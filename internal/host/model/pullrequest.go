package model

import (
	"fmt"
	"time"
)

// PullRequestHandle identifies a pull request on the host. It is supplied by
// the caller and never mutated.
type PullRequestHandle struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

func (h PullRequestHandle) String() string {
	return fmt.Sprintf("%s/%s#%d", h.Owner, h.Repo, h.Number)
}

type PullRequestState string

const (
	PullRequestOpen   PullRequestState = "OPEN"
	PullRequestClosed PullRequestState = "CLOSED"
	PullRequestMerged PullRequestState = "MERGED"
)

// MergeableState is the pure conflict-detection result, independent of
// branch-protection policy.
type MergeableState string

const (
	MergeableStateMergeable   MergeableState = "MERGEABLE"
	MergeableStateConflicting MergeableState = "CONFLICTING"
	MergeableStateUnknown     MergeableState = "UNKNOWN"
)

// MergeStateStatus is the composite readiness signal reported by the host.
// UNKNOWN means the host is still computing it; every other value is
// terminal for the current poll.
type MergeStateStatus string

const (
	MergeStateMergeable   MergeStateStatus = "MERGEABLE"
	MergeStateConflicting MergeStateStatus = "CONFLICTING"
	MergeStateUnknown     MergeStateStatus = "UNKNOWN"
	MergeStateBlocked     MergeStateStatus = "BLOCKED"
	MergeStateBehind      MergeStateStatus = "BEHIND"
	MergeStateUnstable    MergeStateStatus = "UNSTABLE"
	MergeStateDirty       MergeStateStatus = "DIRTY"
)

type ReviewDecision string

const (
	ReviewApproved         ReviewDecision = "APPROVED"
	ReviewChangesRequested ReviewDecision = "CHANGES_REQUESTED"
	ReviewRequired         ReviewDecision = "REVIEW_REQUIRED"
	ReviewNone             ReviewDecision = "NONE"
)

// CheckRollupState summarizes the required status checks on the head commit.
type CheckRollupState string

const (
	CheckRollupSuccess CheckRollupState = "SUCCESS"
	CheckRollupFailure CheckRollupState = "FAILURE"
	CheckRollupPending CheckRollupState = "PENDING"
	CheckRollupError   CheckRollupState = "ERROR"
)

// MergeState is a snapshot of the authoritative merge state of one pull
// request, fetched fresh on every query. It is never cached across calls.
type MergeState struct {
	State             PullRequestState `json:"state"`
	Merged            bool             `json:"merged"`
	MergedAt          *time.Time       `json:"merged_at,omitempty"`
	MergeCommitOID    string           `json:"merge_commit_oid,omitempty"`
	HeadOID           string           `json:"head_oid"`
	BaseRefName       string           `json:"base_ref"`
	HeadRefName       string           `json:"head_ref"`
	Title             string           `json:"title"`
	Body              string           `json:"body,omitempty"`
	Mergeability      MergeableState   `json:"mergeable"`
	MergeStateStatus  MergeStateStatus `json:"merge_state_status"`
	ReviewDecision    ReviewDecision   `json:"review_decision"`
	CheckRollup       CheckRollupState `json:"check_rollup"`
	UnresolvedThreads int              `json:"unresolved_threads"`
}

// CommitAuthor identifies who wrote a commit on the source branch.
type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Login string `json:"login,omitempty"`
}

type Commit struct {
	OID     string       `json:"oid"`
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
	Parents []string     `json:"parents,omitempty"`
	TreeOID string       `json:"tree_oid,omitempty"`
}
