package cmd

import (
	"github.com/spf13/cobra"

	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/serializer"
)

var (
	readinessOverrideChecks  bool
	readinessOverrideThreads bool
)

var checkReadinessCmd = &cobra.Command{
	Use:   "check-readiness <owner>/<repo> <number>",
	Short: "Evaluate whether a pull request is ready to merge",
	Long: `Fetch the composite readiness signal, waiting out a transient
"still computing" state with bounded backoff, and report the verdict with
every blocking reason.

Exit codes: 0 ready, 1 CI failing, 2 conflicts, 3 unresolved threads,
4 reviews required, 5 other.`,
	Args: cobra.ExactArgs(2),
	RunE: runCheckReadiness,
}

func init() {
	checkReadinessCmd.Flags().BoolVar(&readinessOverrideChecks, "override-failing-checks", false, "Evaluate as if failing checks were overridden")
	checkReadinessCmd.Flags().BoolVar(&readinessOverrideThreads, "override-unresolved-threads", false, "Evaluate as if unresolved threads were overridden")
	rootCmd.AddCommand(checkReadinessCmd)
}

func runCheckReadiness(cmd *cobra.Command, args []string) error {
	handle, err := parseHandle(args)
	if err != nil {
		return exitWith(readyExitOther, err)
	}

	e, _, err := buildEngine()
	if err != nil {
		return exitWith(readyExitOther, err)
	}

	req := engine.MergeRequest{
		Strategy:                  engine.StrategyMergeCommit,
		OverrideFailingChecks:     readinessOverrideChecks,
		OverrideUnresolvedThreads: readinessOverrideThreads,
	}

	report, err := e.CheckReadiness(cmd.Context(), handle, req)
	if err != nil {
		return exitWith(readinessExitCode(nil, err), err)
	}

	printResult(e, serializer.FromReadiness(report))
	return exit(readinessExitCode(report, nil))
}
