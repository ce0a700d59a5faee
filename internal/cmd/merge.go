package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/serializer"
)

var (
	mergeStrategy        string
	mergeDeleteBranch    bool
	mergeOverrideChecks  bool
	mergeOverrideThreads bool
	mergeCommitTitle     string
	mergeCommitMessage   string
)

var executeMergeCmd = &cobra.Command{
	Use:   "execute-merge <owner>/<repo> <number>",
	Short: "Merge a pull request after confirming readiness",
	Long: `Run the full check-act-verify sequence: confirm the pull request
is ready, issue the merge pinned to the head observed at check time, then
poll until the merged state is visible.

Re-running on a merged pull request is a no-op reported as already-merged.

Exit codes: 0 merged, 1 bad params, 2 not found, 3 error, 4 auth,
5 already merged, 6 not mergeable.`,
	Args: cobra.ExactArgs(2),
	RunE: runExecuteMerge,
}

func init() {
	executeMergeCmd.Flags().StringVar(&mergeStrategy, "strategy", "merge-commit", "Merge strategy: merge-commit, squash or rebase")
	executeMergeCmd.Flags().BoolVar(&mergeDeleteBranch, "delete-branch", false, "Delete the source branch after merging")
	executeMergeCmd.Flags().BoolVar(&mergeOverrideChecks, "override-failing-checks", false, "Merge even when required checks are failing")
	executeMergeCmd.Flags().BoolVar(&mergeOverrideThreads, "override-unresolved-threads", false, "Merge even when review threads are unresolved")
	executeMergeCmd.Flags().StringVar(&mergeCommitTitle, "commit-title", "", "Override the merge commit title")
	executeMergeCmd.Flags().StringVar(&mergeCommitMessage, "commit-message", "", "Override the merge commit message")
	rootCmd.AddCommand(executeMergeCmd)
}

func parseStrategy(s string) (engine.MergeStrategy, error) {
	switch s {
	case "merge-commit", "merge", string(engine.StrategyMergeCommit):
		return engine.StrategyMergeCommit, nil
	case "squash", string(engine.StrategySquash):
		return engine.StrategySquash, nil
	case "rebase", string(engine.StrategyRebase):
		return engine.StrategyRebase, nil
	default:
		return "", errors.Wrapf(engine.ErrInvalidRequest, "unknown merge strategy %q", s)
	}
}

func runExecuteMerge(cmd *cobra.Command, args []string) error {
	handle, err := parseHandle(args)
	if err != nil {
		return exitWith(executeExitBadParams, err)
	}

	strategy, err := parseStrategy(mergeStrategy)
	if err != nil {
		return exitWith(executeExitBadParams, err)
	}

	e, _, err := buildEngine()
	if err != nil {
		return exitWith(executeExitError, err)
	}

	req := engine.MergeRequest{
		Strategy:                  strategy,
		DeleteSourceBranch:        mergeDeleteBranch,
		OverrideFailingChecks:     mergeOverrideChecks,
		OverrideUnresolvedThreads: mergeOverrideThreads,
		CommitTitle:               mergeCommitTitle,
		CommitMessage:             mergeCommitMessage,
	}

	result, err := e.Execute(cmd.Context(), handle, req)
	if err != nil {
		return exitWith(executeMergeExitCode(nil, err), err)
	}

	printResult(e, serializer.FromMergeResult(result, ""))
	return exit(executeMergeExitCode(result, nil))
}
