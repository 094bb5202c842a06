package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/api"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/storage"
)

const (
	defaultPurgeInterval = time.Hour
	shutdownTimeout      = 10 * time.Second
)

var (
	servePort          int
	servePurgeInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scanner over REST",
	Long: `Starts the REST API. Scans posted to /api/v1/scans are recorded in history
when the database is enabled; expired catalog lookups are purged from it
every --purge-interval.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server, scheduler, err := newServer(a)
	if err != nil {
		return err
	}

	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("Failed to stop purge scheduler", "error", err)
			}
		}()
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API server running at http://localhost:%d\n", server.Port())

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	<-ctx.Done()

	logger.Info("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}

// newServer builds the API server over a, and the purge scheduler when
// catalog lookups are persisted.
func newServer(a *app) (*api.Server, *storage.PurgeScheduler, error) {
	services := &api.Services{
		Scanner: a.pipeline,
		Cache:   a.session,
		Metrics: a.metrics,
	}

	var scheduler *storage.PurgeScheduler
	if a.store != nil {
		services.Store = a.store
		if a.cfg.PersistentCatalog() {
			services.Persistent = a.store.CatalogCache()
			scheduler = storage.NewPurgeScheduler(a.store.CatalogCache(), &storage.SchedulerConfig{
				Interval:         servePurgeInterval,
				StartImmediately: true,
				Logger:           a.logger,
			})
		}
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Port = a.cfg.Server.Port
	apiConfig.Logger = a.logger
	server, err := api.NewServer(apiConfig, services)
	if err != nil {
		return nil, nil, err
	}
	return server, scheduler, nil
}
