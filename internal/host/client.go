package host

import (
	"context"

	"github.com/octoflow/mergecoord/internal/host/model"
)

// MergeMethod selects how source-branch commits are integrated into the
// target branch.
type MergeMethod string

const (
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodRebase MergeMethod = "rebase"
)

// MergeOptions carries everything the merge call needs. ExpectedHeadOID pins
// the merge to the head observed at check time; the host rejects the call if
// the branch has moved since.
type MergeOptions struct {
	Method          MergeMethod
	CommitTitle     string
	CommitMessage   string
	ExpectedHeadOID string
}

// Client is the narrow interface the engine consumes. The production
// implementation talks to GitHub; tests use hosttest.FakeClient.
type Client interface {
	// MergeState performs the single strongly-consistent read of the
	// merge-state snapshot. It never serves cached data.
	MergeState(ctx context.Context, handle model.PullRequestHandle) (*model.MergeState, error)

	// Merge executes the merge and returns the merge commit OID.
	Merge(ctx context.Context, handle model.PullRequestHandle, opts MergeOptions) (string, error)

	// ListCommits returns the commits on the source branch, oldest first.
	ListCommits(ctx context.Context, handle model.PullRequestHandle) ([]model.Commit, error)

	// OpenPullRequestsWithBase counts open pull requests whose base is the
	// given branch. Used as the safety check before source branch deletion.
	OpenPullRequestsWithBase(ctx context.Context, owner, repo, base string) (int, error)

	// DeleteBranch removes a head ref after a merge.
	DeleteBranch(ctx context.Context, owner, repo, branch string) error

	// Commit fetches one commit with its parents and tree.
	Commit(ctx context.Context, owner, repo, oid string) (*model.Commit, error)

	// BranchHead returns the OID a branch currently points at.
	BranchHead(ctx context.Context, owner, repo, branch string) (string, error)

	// CreateCommit writes a new commit object and returns its OID.
	CreateCommit(ctx context.Context, owner, repo, message, treeOID, parentOID string) (string, error)

	// CreateBranch creates a new branch at the given OID.
	CreateBranch(ctx context.Context, owner, repo, branch, oid string) error

	// UpdateBranch moves a branch to the given OID. force permits a
	// non-fast-forward move and is only ever set by the gated reset path.
	UpdateBranch(ctx context.Context, owner, repo, branch, oid string, force bool) error

	// Quota exposes the shared rate-limit tracker.
	Quota() *QuotaTracker
}
