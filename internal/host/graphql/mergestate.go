package graphql

import (
	"context"

	"github.com/shurcooL/githubv4"

	"github.com/octoflow/mergecoord/internal/host/model"
)

// GetMergeState fetches the complete merge-state snapshot for one pull
// request in a single query, so every field is observed at the same point in
// time.
func (c *Client) GetMergeState(ctx context.Context, handle model.PullRequestHandle) (*model.MergeState, error) {
	params := map[string]interface{}{
		queryParamOwner:    githubv4.String(handle.Owner),
		queryParamRepo:     githubv4.String(handle.Repo),
		queryParamPRNumber: githubv4.Int(handle.Number),
	}

	var query mergeStateQuery
	if err := c.executeQuery(ctx, &query, params); err != nil {
		return nil, err
	}

	return stateFromQuery(&query), nil
}

func stateFromQuery(query *mergeStateQuery) *model.MergeState {
	pr := &query.Repository.PullRequest

	state := &model.MergeState{
		State:            model.PullRequestState(pr.State),
		Merged:           bool(pr.Merged),
		Title:            string(pr.Title),
		Body:             string(pr.Body),
		BaseRefName:      string(pr.BaseRefName),
		HeadRefName:      string(pr.HeadRefName),
		HeadOID:          string(pr.HeadRefOID),
		Mergeability:     mergeableState(pr.Mergeable),
		MergeStateStatus: mergeStateStatus(pr.MergeStateStatus, pr.Mergeable),
		ReviewDecision:   reviewDecision(pr.ReviewDecision),
	}

	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		state.MergedAt = &t
	}
	if pr.MergeCommit != nil {
		state.MergeCommitOID = string(pr.MergeCommit.OID)
	}

	for _, thread := range pr.ReviewThreads.Nodes {
		if !thread.IsResolved {
			state.UnresolvedThreads++
		}
	}

	state.CheckRollup = model.CheckRollupSuccess
	if len(pr.Commits.Nodes) > 0 {
		state.CheckRollup = checkRollup(pr.Commits.Nodes[0].Commit.StatusCheckRollup.State)
	}

	return state
}

func mergeableState(m githubv4.MergeableState) model.MergeableState {
	switch m {
	case githubv4.MergeableStateMergeable:
		return model.MergeableStateMergeable
	case githubv4.MergeableStateConflicting:
		return model.MergeableStateConflicting
	default:
		return model.MergeableStateUnknown
	}
}

// mergeStateStatus folds the host's raw status vocabulary into the engine's.
// CLEAN and HAS_HOOKS are both mergeable; DRAFT is a protection block; DIRTY
// with a detected conflict is reported as CONFLICTING so the caller gets the
// sharper reason.
func mergeStateStatus(s githubv4.MergeStateStatus, m githubv4.MergeableState) model.MergeStateStatus {
	switch s {
	case githubv4.MergeStateStatusClean, githubv4.MergeStateStatusHasHooks:
		return model.MergeStateMergeable
	case githubv4.MergeStateStatusDirty:
		if m == githubv4.MergeableStateConflicting {
			return model.MergeStateConflicting
		}
		return model.MergeStateDirty
	case githubv4.MergeStateStatusBlocked, githubv4.MergeStateStatusDraft:
		return model.MergeStateBlocked
	case githubv4.MergeStateStatusBehind:
		return model.MergeStateBehind
	case githubv4.MergeStateStatusUnstable:
		return model.MergeStateUnstable
	default:
		return model.MergeStateUnknown
	}
}

func reviewDecision(d githubv4.PullRequestReviewDecision) model.ReviewDecision {
	switch d {
	case githubv4.PullRequestReviewDecisionApproved:
		return model.ReviewApproved
	case githubv4.PullRequestReviewDecisionChangesRequested:
		return model.ReviewChangesRequested
	case githubv4.PullRequestReviewDecisionReviewRequired:
		return model.ReviewRequired
	default:
		return model.ReviewNone
	}
}

func checkRollup(s githubv4.StatusState) model.CheckRollupState {
	switch s {
	case githubv4.StatusStateSuccess, "":
		return model.CheckRollupSuccess
	case githubv4.StatusStateFailure:
		return model.CheckRollupFailure
	case githubv4.StatusStateError:
		return model.CheckRollupError
	default:
		return model.CheckRollupPending
	}
}
