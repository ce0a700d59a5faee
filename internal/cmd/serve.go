package cmd

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/octoflow/mergecoord/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the coordination operations over HTTP",
	Long: `Run an HTTP server with one endpoint per operation, for callers
that coordinate many pull requests concurrently. Invocations stay
independent; waits are context-based and never block each other.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, log, err := buildEngine()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         serveAddr,
		Handler:      api.NewServer(e, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	log.WithField("addr", serveAddr).Info("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
