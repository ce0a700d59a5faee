package hosttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/octoflow/mergecoord/internal/host"
	"github.com/octoflow/mergecoord/internal/host/model"
)

// FakeClient is a scripted host.Client for tests. State reads consume the
// States slice in order, repeating the last entry; every mutation is
// recorded so tests can assert exactly which host calls happened.
type FakeClient struct {
	mu sync.Mutex

	States   []*model.MergeState
	StateErr error

	MergeOID string
	MergeErr error

	Commits      []model.Commit
	DependentPRs int

	CommitsByOID map[string]*model.Commit
	BranchHeads  map[string]string

	FetchCount      int
	MergeCalls      []host.MergeOptions
	DeletedBranches []string
	CreatedBranches map[string]string
	CreatedCommits  []CreatedCommit
	BranchUpdates   []BranchUpdate

	quota *host.QuotaTracker
}

type CreatedCommit struct {
	OID     string
	Message string
	TreeOID string
	Parent  string
}

type BranchUpdate struct {
	Branch string
	OID    string
	Force  bool
}

func NewFakeClient(states ...*model.MergeState) *FakeClient {
	return &FakeClient{
		States:          states,
		CommitsByOID:    map[string]*model.Commit{},
		BranchHeads:     map[string]string{},
		CreatedBranches: map[string]string{},
		quota:           host.NewQuotaTracker(0),
	}
}

func (f *FakeClient) MergeState(_ context.Context, _ model.PullRequestHandle) (*model.MergeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.FetchCount++
	if f.StateErr != nil {
		return nil, f.StateErr
	}
	if len(f.States) == 0 {
		return nil, host.ErrNotFound
	}

	idx := f.FetchCount - 1
	if idx >= len(f.States) {
		idx = len(f.States) - 1
	}
	snapshot := *f.States[idx]
	return &snapshot, nil
}

func (f *FakeClient) Merge(_ context.Context, _ model.PullRequestHandle, opts host.MergeOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.quota.GuardMutation(); err != nil {
		return "", err
	}
	f.MergeCalls = append(f.MergeCalls, opts)
	if f.MergeErr != nil {
		return "", f.MergeErr
	}
	return f.MergeOID, nil
}

func (f *FakeClient) ListCommits(_ context.Context, _ model.PullRequestHandle) ([]model.Commit, error) {
	return f.Commits, nil
}

func (f *FakeClient) OpenPullRequestsWithBase(_ context.Context, _, _, _ string) (int, error) {
	return f.DependentPRs, nil
}

func (f *FakeClient) DeleteBranch(_ context.Context, _, _, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeletedBranches = append(f.DeletedBranches, branch)
	return nil
}

func (f *FakeClient) Commit(_ context.Context, _, _, oid string) (*model.Commit, error) {
	if c, ok := f.CommitsByOID[oid]; ok {
		return c, nil
	}
	return nil, host.ErrNotFound
}

func (f *FakeClient) BranchHead(_ context.Context, _, _, branch string) (string, error) {
	if oid, ok := f.BranchHeads[branch]; ok {
		return oid, nil
	}
	return "", host.ErrNotFound
}

func (f *FakeClient) CreateCommit(_ context.Context, _, _, message, treeOID, parentOID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	oid := fmt.Sprintf("created-%d", len(f.CreatedCommits)+1)
	f.CreatedCommits = append(f.CreatedCommits, CreatedCommit{
		OID:     oid,
		Message: message,
		TreeOID: treeOID,
		Parent:  parentOID,
	})
	return oid, nil
}

func (f *FakeClient) CreateBranch(_ context.Context, _, _, branch, oid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreatedBranches[branch] = oid
	return nil
}

func (f *FakeClient) UpdateBranch(_ context.Context, _, _, branch, oid string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BranchUpdates = append(f.BranchUpdates, BranchUpdate{Branch: branch, OID: oid, Force: force})
	f.BranchHeads[branch] = oid
	return nil
}

func (f *FakeClient) Quota() *host.QuotaTracker {
	return f.quota
}

// MutationCount is the total number of recorded host mutations.
func (f *FakeClient) MutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.MergeCalls) + len(f.DeletedBranches) + len(f.CreatedBranches) +
		len(f.CreatedCommits) + len(f.BranchUpdates)
}
