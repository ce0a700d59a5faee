package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/octoflow/mergecoord/internal/config"
	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/host"
	"github.com/octoflow/mergecoord/internal/host/model"
	"github.com/octoflow/mergecoord/internal/serializer"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "mergecoord",
	Short: "Merge coordination engine for pull requests",
	Long: `mergecoord decides whether a pull request can be merged safely,
executes the merge exactly once, and verifies the result.

Each subcommand is one coordination operation with a stable exit-code
contract and a structured JSON result on stdout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override configured log level")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var status *exitError
		if errors.As(err, &status) {
			if status.err != nil {
				fmt.Fprintln(os.Stderr, status.err)
			}
			return status.code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// exitError carries a contract exit code out of a RunE. A nil inner error
// means the code itself is the whole answer (e.g. "merged" is exit 1 on
// check-merged, not a failure to report).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func exit(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func buildEngine() (*engine.Engine, *logrus.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := buildLogger(cfg)

	client, err := host.NewGitHubClient(host.Options{
		Token:               cfg.Auth.Token,
		EnterpriseBaseURL:   cfg.Auth.EnterpriseBaseURL,
		EnterpriseUploadURL: cfg.Auth.EnterpriseUploadURL,
		QuotaThreshold:      cfg.RateLimit.SafetyThreshold,
		Logger:              log,
	})
	if err != nil {
		return nil, nil, err
	}

	e := engine.New(client,
		engine.WithLogger(log),
		engine.WithRetryPolicy(engine.RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay(),
		}),
	)
	return e, log, nil
}

// parseHandle reads the "<owner>/<repo> <number>" positional arguments every
// operation takes.
func parseHandle(args []string) (model.PullRequestHandle, error) {
	if len(args) != 2 {
		return model.PullRequestHandle{}, errors.Wrap(engine.ErrInvalidRequest, "expected arguments: <owner>/<repo> <number>")
	}

	parts := strings.Split(args[0], "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return model.PullRequestHandle{}, errors.Wrapf(engine.ErrInvalidRequest, "invalid repository %q, expected <owner>/<repo>", args[0])
	}

	number, err := strconv.Atoi(args[1])
	if err != nil || number <= 0 {
		return model.PullRequestHandle{}, errors.Wrapf(engine.ErrInvalidRequest, "invalid pull request number %q", args[1])
	}

	return model.PullRequestHandle{Owner: parts[0], Repo: parts[1], Number: number}, nil
}

// printResult writes the result object as indented JSON on stdout, with the
// last observed rate-limit quota attached when one is known.
func printResult(e *engine.Engine, result *serializer.OperationResult) {
	if remaining, ok := e.QuotaRemaining(); ok {
		result.WithRateRemaining(remaining)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode result:", err)
		return
	}
	fmt.Println(string(out))
}
