package cmd

import (
	"github.com/spf13/cobra"

	"github.com/octoflow/mergecoord/internal/serializer"
)

var checkMergedCmd = &cobra.Command{
	Use:   "check-merged <owner>/<repo> <number>",
	Short: "Check whether a pull request is already merged",
	Long: `Query the authoritative merge state and report whether the pull
request has been merged.

Exit codes: 0 not merged, 1 merged, 2 not found, 3 host error, 4 auth.`,
	Args: cobra.ExactArgs(2),
	RunE: runCheckMerged,
}

func init() {
	rootCmd.AddCommand(checkMergedCmd)
}

func runCheckMerged(cmd *cobra.Command, args []string) error {
	handle, err := parseHandle(args)
	if err != nil {
		return exitWith(mergedExitHostError, err)
	}

	e, _, err := buildEngine()
	if err != nil {
		return exitWith(mergedExitHostError, err)
	}

	state, err := e.CheckMerged(cmd.Context(), handle)
	if err != nil {
		return exitWith(checkMergedExitCode(nil, err), err)
	}

	printResult(e, serializer.FromState("check-merged", state))
	return exit(checkMergedExitCode(state, nil))
}
