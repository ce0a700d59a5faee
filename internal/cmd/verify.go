package cmd

import (
	"github.com/spf13/cobra"

	"github.com/octoflow/mergecoord/internal/serializer"
)

var verifyCompletionCmd = &cobra.Command{
	Use:   "verify-completion <owner>/<repo> <number>",
	Short: "Re-query whether a merge has become visible",
	Long: `Perform a single authoritative read of the merged flag. Used after
an execute-merge whose verification timed out: the merge may have succeeded
server-side, so callers re-query instead of retrying the merge.

Exit codes: 0 not merged, 1 merged, 2 not found, 3 error.`,
	Args: cobra.ExactArgs(2),
	RunE: runVerifyCompletion,
}

func init() {
	rootCmd.AddCommand(verifyCompletionCmd)
}

func runVerifyCompletion(cmd *cobra.Command, args []string) error {
	handle, err := parseHandle(args)
	if err != nil {
		return exitWith(verifyExitError, err)
	}

	e, _, err := buildEngine()
	if err != nil {
		return exitWith(verifyExitError, err)
	}

	state, err := e.VerifyCompletion(cmd.Context(), handle)
	if err != nil {
		return exitWith(verifyExitCode(nil, err), err)
	}

	printResult(e, serializer.FromState("verify-completion", state))
	return exit(verifyExitCode(state, nil))
}
