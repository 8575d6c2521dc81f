package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/rotor/internal/api"
	"github.com/wonny/rotor/internal/api/handlers"
)

var apiPort string

// apiCmd starts the leaderboard HTTP API
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the leaderboard API server",
	Long: `Serves the weekly rankings over HTTP.

Endpoints:
  GET  /health                      - health check
  GET  /api/rankings/weeks          - available weeks
  GET  /api/rankings/latest?top=N   - latest week's leaderboard
  GET  /api/rankings/{week}?top=N   - one week's leaderboard
  GET  /api/sectors/{symbol}/trend  - one symbol's ranked history
  POST /api/pipeline/run            - trigger a pipeline run

Example:
  go run ./cmd/rotation api
  go run ./cmd/rotation api --port 8080`,
	RunE: runAPIServer,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(
		handlers.NewRankingsHandler(a.rankings, a.cache, a.strategy.Rankings.TopN, a.log),
		handlers.NewPipelineHandler(a.runner, a.log),
		handlers.NewHealthHandler(a.db),
		a.log,
	)

	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
