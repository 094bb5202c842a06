// Package main is the deckscan command line tool. It turns OCR dumps of deck
// screenshots into complete, importable deck lists, keeps a history of scans
// and serves the same pipeline over REST.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/config"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/version"
)

var (
	// Global flags
	configPath string
	logFormat  string
	debug      bool
	dbPath     string

	// Set up by PersistentPreRunE
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "deckscan",
	Short: "Turn OCR text of deck screenshots into complete deck lists",
	Long: `deckscan reads the text an OCR engine extracted from a deck screenshot,
resolves card names against Scryfall and always produces a 60 card main deck
with a 15 card sideboard, ready to import into MTG Arena or MTGO.

OCR dumps are plain text files (one fragment per line) or JSON arrays of
positioned fragments.`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.mtga-deckscanner/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Scan database path (default from config)")

	// Scan flags
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "Export format (default from config)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Directory to write exports to (default: stdout)")
	scanCmd.Flags().BoolVar(&scanXLSX, "xlsx", false, "Also write a spreadsheet per deck")
	scanCmd.Flags().IntSliceVar(&scanTargets, "targets", nil, "Main and side deck sizes, e.g. 60,15")
	scanCmd.Flags().BoolVar(&scanNoSave, "no-save", false, "Do not record scans in history")

	// Watch flags
	watchCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Directory to write exports to (default: stdout)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", defaultSettle, "Wait this long after the last write before scanning")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Scan files already in the directory first")

	// Serve flags
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "API server port (default from config)")
	serveCmd.Flags().DurationVar(&servePurgeInterval, "purge-interval", defaultPurgeInterval, "How often to purge expired catalog cache entries")

	// Export flags
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Text format, or csv, json or xlsx (default: the scan's format)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "File to write (default: stdout, required for xlsx)")

	// History flags
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of scans to show")
	historyCmd.Flags().BoolVar(&historyGuaranteed, "guaranteed", false, "Only show scans that resolved to a real deck")
	historyCmd.Flags().StringVar(&historySince, "since", "", "Only show scans since: today, last-week, 7d, 36h or a date")

	// Cache flags
	cachePurgeCmd.Flags().BoolVar(&cachePurgeAll, "all", false, "Remove every entry, not only expired ones")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)

	// Config flags
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies the global flags and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}

	if logFormat != "" {
		loaded.App.LogFormat = logFormat
	}
	if debug {
		loaded.App.DebugMode = true
	}
	if dbPath != "" {
		loaded.Cache.DBPath = dbPath
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = loaded
	logger = newLogger(cmd.ErrOrStderr(), loaded)
	slog.SetDefault(logger)
	return nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func newLogger(w io.Writer, c *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.App.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
