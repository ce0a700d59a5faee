package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/octoflow/mergecoord/internal/host"
	"github.com/octoflow/mergecoord/internal/host/model"
)

// Execute runs the full check-act-verify sequence. Calling it on an already
// merged pull request is a no-op that reports alreadyMerged; no host
// mutation is issued unless the evaluator declared the snapshot ready in
// this same invocation.
func (e *Engine) Execute(ctx context.Context, handle model.PullRequestHandle, req MergeRequest) (*MergeResult, error) {
	id := uuid.NewString()
	log := e.log.WithFields(logrus.Fields{"coordination_id": id, "pr": handle.String()})

	method, err := req.Strategy.Method()
	if err != nil {
		return nil, err
	}

	state, err := e.retry.FetchSettled(ctx, e.fetch(handle))
	if err != nil {
		return nil, err
	}

	if state.Merged {
		log.WithField("merge_commit", state.MergeCommitOID).Info("already merged, nothing to do")
		return &MergeResult{
			CoordinationID: id,
			Success:        true,
			AlreadyMerged:  true,
			MergeCommitOID: state.MergeCommitOID,
		}, nil
	}

	ready, reasons := Evaluate(state, req)
	if !ready {
		log.WithField("reasons", reasonCodes(reasons)).Info("merge blocked")
		return &MergeResult{
			CoordinationID:  id,
			BlockingReasons: reasons,
		}, nil
	}

	opts := host.MergeOptions{
		Method:          method,
		CommitTitle:     req.CommitTitle,
		CommitMessage:   req.CommitMessage,
		ExpectedHeadOID: state.HeadOID,
	}
	if req.Strategy == StrategySquash && req.CommitMessage == "" {
		title, message, err := e.squashMessage(ctx, handle, state)
		if err != nil {
			return nil, err
		}
		if opts.CommitTitle == "" {
			opts.CommitTitle = title
		}
		opts.CommitMessage = message
	}

	mergeOID, err := e.host.Merge(ctx, handle, opts)
	if err != nil {
		if errors.Is(err, host.ErrHeadChanged) {
			log.Warn("head moved between check and merge, caller should restart the sequence")
		}
		return nil, err
	}
	log.WithField("merge_commit", mergeOID).Info("merge accepted by host")

	result := &MergeResult{
		CoordinationID: id,
		Success:        true,
		MergeCommitOID: mergeOID,
	}

	if req.DeleteSourceBranch {
		e.deleteSourceBranch(ctx, handle, state, result, log)
	}

	// Post-merge verification. Cancellation or exhaustion here is not a
	// merge failure; the merge may already be durable server-side, so the
	// caller re-queries later instead of retrying the merge.
	verified, err := e.retry.WaitMerged(ctx, e.fetch(handle))
	switch {
	case err != nil:
		log.WithError(err).Warn("verification interrupted, re-query later")
		result.VerificationTimedOut = true
	case verified == nil:
		log.Warn("verification polls exhausted without observing merged state")
		result.VerificationTimedOut = true
	default:
		if verified.MergeCommitOID != "" {
			result.MergeCommitOID = verified.MergeCommitOID
		}
	}

	return result, nil
}

// deleteSourceBranch removes the head ref unless another open pull request
// builds on it.
func (e *Engine) deleteSourceBranch(ctx context.Context, handle model.PullRequestHandle, state *model.MergeState, result *MergeResult, log *logrus.Entry) {
	dependents, err := e.host.OpenPullRequestsWithBase(ctx, handle.Owner, handle.Repo, state.HeadRefName)
	if err != nil {
		log.WithError(err).Warn("could not check for dependent pull requests, keeping branch")
		result.BranchDeleteSkipped = "dependent pull request check failed"
		return
	}
	if dependents > 0 {
		log.WithField("dependents", dependents).Info("keeping branch, open pull requests build on it")
		result.BranchDeleteSkipped = fmt.Sprintf("%d open pull request(s) use this branch as base", dependents)
		return
	}

	if err := e.host.DeleteBranch(ctx, handle.Owner, handle.Repo, state.HeadRefName); err != nil {
		log.WithError(err).Warn("branch deletion failed")
		result.BranchDeleteSkipped = "deletion failed: " + err.Error()
		return
	}
	result.BranchDeleted = true
}

// squashMessage synthesizes the squash commit title and message: the pull
// request title and body, plus co-author trailers so no author from the
// source branch is lost in the single squashed commit.
func (e *Engine) squashMessage(ctx context.Context, handle model.PullRequestHandle, state *model.MergeState) (string, string, error) {
	commits, err := e.host.ListCommits(ctx, handle)
	if err != nil {
		return "", "", errors.Wrap(err, "could not list commits for squash message")
	}

	title := fmt.Sprintf("%s (#%d)", state.Title, handle.Number)

	var b strings.Builder
	if state.Body != "" {
		b.WriteString(state.Body)
	}

	trailers := coAuthorTrailers(commits)
	if len(trailers) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(trailers, "\n"))
	}

	return title, b.String(), nil
}

// coAuthorTrailers returns Co-authored-by lines for every distinct author
// after the first, in commit order.
func coAuthorTrailers(commits []model.Commit) []string {
	if len(commits) == 0 {
		return nil
	}

	seen := map[string]bool{commits[0].Author.Email: true}
	var trailers []string
	for _, c := range commits[1:] {
		if c.Author.Email == "" || seen[c.Author.Email] {
			continue
		}
		seen[c.Author.Email] = true
		trailers = append(trailers, fmt.Sprintf("Co-authored-by: %s <%s>", c.Author.Name, c.Author.Email))
	}
	return trailers
}

func reasonCodes(reasons []BlockingReason) []string {
	codes := make([]string, 0, len(reasons))
	for _, r := range reasons {
		codes = append(codes, r.Code)
	}
	return codes
}
