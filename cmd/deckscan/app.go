package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/config"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/metrics"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/scryfall"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/pipeline"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/storage"
)

// newCatalog builds the card catalog behind the resolver. Tests replace it
// with an in-memory catalog.
var newCatalog = func(c *config.Config, logger *slog.Logger) catalog.Catalog {
	return catalog.NewScryfallCatalog(scryfall.NewClientWithOptions(c.ScryfallOptions(logger)))
}

// app wires the scanner together for one command run.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.Service // nil when the database is disabled
	session  *resolver.Session
	pipeline *pipeline.Pipeline
	metrics  *metrics.ScanMetrics
}

func newApp(c *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: c, logger: logger, metrics: metrics.NewScanMetrics()}

	if c.Cache.Enabled {
		store, err := openStore(c)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	opts := c.ResolverOptions(logger)
	if a.store != nil && c.PersistentCatalog() {
		opts.Persistent = a.store.CatalogCache()
	}
	a.session = resolver.NewSession(newCatalog(c, logger), opts)

	pipelineOpts := c.PipelineOptions(logger)
	pipelineOpts.Metrics = a.metrics
	p, err := pipeline.New(a.session, pipelineOpts)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.pipeline = p
	return a, nil
}

// openStore opens the scan database, creating and migrating it as needed.
func openStore(c *config.Config) (*storage.Service, error) {
	path, err := c.DBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate database: %w", err)
	}
	dbConfig := storage.DefaultConfig(path)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, err
	}
	return storage.NewService(db), nil
}

// requireStore opens the database for commands that only work with history.
func requireStore(c *config.Config) (*storage.Service, error) {
	if !c.Cache.Enabled {
		return nil, fmt.Errorf("the scan database is disabled (cache.enabled = false)")
	}
	return openStore(c)
}

// Close releases the database.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// scanFile runs the pipeline over one OCR dump and records the result.
func (a *app) scanFile(ctx context.Context, path string, save bool) (*pipeline.DeckResult, error) {
	result, err := a.pipeline.Scan(ctx, path)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Scanned deck",
		"source", path,
		"state", result.State,
		"main", result.Validation.MainCount,
		"side", result.Validation.SideCount,
		"unvalidated", len(result.Unvalidated),
		"guaranteed", result.Guaranteed)

	if save {
		if err := a.record(ctx, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// record stores result unless history is off or an identical deck is
// already stored.
func (a *app) record(ctx context.Context, result *pipeline.DeckResult) error {
	if a.store == nil {
		return nil
	}

	prev, err := a.store.FindByFingerprint(ctx, result.Fingerprint)
	if err != nil {
		return fmt.Errorf("failed to check scan history: %w", err)
	}
	if prev != nil {
		a.logger.Info("Deck already in history", "source", result.Source, "scan", storage.ShortID(prev.ID))
		return nil
	}

	if _, err := a.store.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to store scan: %w", err)
	}
	a.logger.Debug("Stored scan", "id", result.ID)
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
