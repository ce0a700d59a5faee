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

// Rollback undoes a completed merge. The approval gate for FORCE_RESET is
// checked before any host call so it holds for all inputs, valid or not.
func (e *Engine) Rollback(ctx context.Context, handle model.PullRequestHandle, req RollbackRequest) (*RollbackResult, error) {
	if req.Mode == RollbackForceReset && req.ApprovalToken == "" {
		return nil, ErrApprovalRequired
	}

	switch req.Mode {
	case RollbackRevertCommit, RollbackHotfixBranch, RollbackForceReset:
	default:
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown rollback mode %q", string(req.Mode))
	}
	if req.MergeCommitOID == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "merge commit is required")
	}

	id := uuid.NewString()
	log := e.log.WithFields(logrus.Fields{
		"coordination_id": id,
		"pr":              handle.String(),
		"mode":            string(req.Mode),
	})

	mergeCommit, err := e.host.Commit(ctx, handle.Owner, handle.Repo, req.MergeCommitOID)
	if err != nil {
		return nil, err
	}
	if len(mergeCommit.Parents) == 0 {
		return nil, errors.Wrap(ErrInvalidRequest, "merge commit has no parent to roll back to")
	}
	preMergeOID := mergeCommit.Parents[0]

	state, err := e.host.MergeState(ctx, handle)
	if err != nil {
		return nil, err
	}

	result := &RollbackResult{CoordinationID: id, Mode: req.Mode}

	switch req.Mode {
	case RollbackRevertCommit:
		oid, err := e.revertCommit(ctx, handle, state.BaseRefName, mergeCommit, preMergeOID)
		if err != nil {
			return nil, err
		}
		log.WithField("revert_commit", oid).Info("revert commit pushed")
		result.CommitOID = oid

	case RollbackHotfixBranch:
		branch := "hotfix/revert-" + shortOID(req.MergeCommitOID)
		if err := e.host.CreateBranch(ctx, handle.Owner, handle.Repo, branch, preMergeOID); err != nil {
			return nil, err
		}
		log.WithField("branch", branch).Info("hotfix branch created at pre-merge commit")
		result.BranchRef = branch
		result.CommitOID = preMergeOID

	case RollbackForceReset:
		log.WithField("approval_token", req.ApprovalToken).Warn("force reset approved, rewriting shared history")
		if err := e.host.UpdateBranch(ctx, handle.Owner, handle.Repo, state.BaseRefName, preMergeOID, true); err != nil {
			return nil, err
		}
		result.CommitOID = preMergeOID
	}

	return result, nil
}

// revertCommit adds a new commit whose tree is the pre-merge tree. The base
// branch must still point at the merge commit; once history has advanced a
// clean API-side revert is no longer well defined and the caller reverts
// locally instead.
func (e *Engine) revertCommit(ctx context.Context, handle model.PullRequestHandle, base string, mergeCommit *model.Commit, preMergeOID string) (string, error) {
	head, err := e.host.BranchHead(ctx, handle.Owner, handle.Repo, base)
	if err != nil {
		return "", err
	}
	if head != mergeCommit.OID {
		return "", errors.Wrapf(host.ErrHeadChanged, "base branch %s has advanced past the merge commit, revert locally", base)
	}

	parent, err := e.host.Commit(ctx, handle.Owner, handle.Repo, preMergeOID)
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("Revert %q\n\nThis reverts commit %s.", firstLine(mergeCommit.Message), mergeCommit.OID)
	oid, err := e.host.CreateCommit(ctx, handle.Owner, handle.Repo, message, parent.TreeOID, head)
	if err != nil {
		return "", err
	}

	if err := e.host.UpdateBranch(ctx, handle.Owner, handle.Repo, base, oid, false); err != nil {
		return "", err
	}
	return oid, nil
}

func shortOID(oid string) string {
	if len(oid) > 7 {
		return oid[:7]
	}
	return oid
}

func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
