package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/serializer"
)

var (
	rollbackMergeCommit   string
	rollbackMode          string
	rollbackApprovalToken string
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <owner>/<repo> <number>",
	Short: "Revert a completed merge",
	Long: `Undo a merge by adding a revert commit (default), cutting a hotfix
branch at the pre-merge commit, or force-resetting the base branch.

Force reset rewrites shared history and always requires --approval-token.

Exit codes: 0 done, 1 bad params, 3 error, 7 approval required.`,
	Args: cobra.ExactArgs(2),
	RunE: runRollback,
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackMergeCommit, "merge-commit", "", "Merge commit to roll back (required)")
	rollbackCmd.Flags().StringVar(&rollbackMode, "mode", "revert-commit", "Rollback mode: revert-commit, hotfix-branch or force-reset")
	rollbackCmd.Flags().StringVar(&rollbackApprovalToken, "approval-token", "", "Recorded human approval for force-reset")
	rootCmd.AddCommand(rollbackCmd)
}

func parseRollbackMode(s string) (engine.RollbackMode, error) {
	switch s {
	case "revert-commit", string(engine.RollbackRevertCommit):
		return engine.RollbackRevertCommit, nil
	case "hotfix-branch", string(engine.RollbackHotfixBranch):
		return engine.RollbackHotfixBranch, nil
	case "force-reset", string(engine.RollbackForceReset):
		return engine.RollbackForceReset, nil
	default:
		return "", errors.Wrapf(engine.ErrInvalidRequest, "unknown rollback mode %q", s)
	}
}

func runRollback(cmd *cobra.Command, args []string) error {
	handle, err := parseHandle(args)
	if err != nil {
		return exitWith(rollbackExitBadParams, err)
	}

	mode, err := parseRollbackMode(rollbackMode)
	if err != nil {
		return exitWith(rollbackExitBadParams, err)
	}

	e, _, err := buildEngine()
	if err != nil {
		return exitWith(rollbackExitError, err)
	}

	req := engine.RollbackRequest{
		MergeCommitOID: rollbackMergeCommit,
		Mode:           mode,
		ApprovalToken:  rollbackApprovalToken,
	}

	result, err := e.Rollback(cmd.Context(), handle, req)
	if err != nil {
		return exitWith(rollbackExitCode(err), err)
	}

	printResult(e, serializer.FromRollback(result))
	return nil
}
