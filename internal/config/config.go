// Package config loads the scanner's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/scryfall"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckexport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/decklist"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/pipeline"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/version"
)

// dirName is the per-user directory holding the config file and database.
const dirName = ".mtga-deckscanner"

// Config represents the application configuration.
type Config struct {
	// Scryfall client configuration
	Catalog CatalogConfig `toml:"catalog"`

	// Lookup cache and scan database configuration
	Cache CacheConfig `toml:"cache"`

	// Name resolution configuration
	Resolver ResolverConfig `toml:"resolver"`

	// Deck completion and export configuration
	Deck DeckConfig `toml:"deck"`

	// REST API configuration
	Server ServerConfig `toml:"server"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// CatalogConfig contains Scryfall client settings.
type CatalogConfig struct {
	BaseURL        string `toml:"base_url"`        // Scryfall API root
	UserAgent      string `toml:"user_agent"`      // Sent with every request
	RequestTimeout string `toml:"request_timeout"` // Per request (e.g., "10s")
	RateInterval   string `toml:"rate_interval"`   // Minimum spacing between requests
	MaxRetries     int    `toml:"max_retries"`     // Retries on 429 responses
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	Enabled    bool   `toml:"enabled"`    // Use the on-disk database at all
	TTL        string `toml:"ttl"`        // Cache TTL (e.g., "24h")
	MaxSize    int    `toml:"max_size"`   // Max in-memory entries
	Persistent bool   `toml:"persistent"` // Keep lookups in the database between runs
	DBPath     string `toml:"db_path"`    // Empty means ~/.mtga-deckscanner/scanner.db
}

// ResolverConfig contains name resolution settings.
type ResolverConfig struct {
	BatchSize           int     `toml:"batch_size"`
	BatchDelay          string  `toml:"batch_delay"`
	Burst               int     `toml:"burst"`
	BurstWindow         string  `toml:"burst_window"`
	AcceptThreshold     float64 `toml:"accept_threshold"`
	ReviewThreshold     float64 `toml:"review_threshold"`
	SuggestionThreshold float64 `toml:"suggestion_threshold"`
	Deadline            string  `toml:"deadline"` // Bound on one batch; "0s" for none
	RetryAttempts       int     `toml:"retry_attempts"`
	RetryBackoff        string  `toml:"retry_backoff"`
}

// DeckConfig contains deck completion and export settings.
type DeckConfig struct {
	TargetMain         int     `toml:"target_main"`
	TargetSide         int     `toml:"target_side"`
	MaxCopies          int     `toml:"max_copies"`
	DefaultColor       string  `toml:"default_color"`        // W, U, B, R or G
	SideColumnFraction float64 `toml:"side_column_fraction"` // x beyond which a fragment is sideboard
	ExportFormat       string  `toml:"export_format"`
}

// ServerConfig contains REST API settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool   `toml:"debug_mode"` // Enable debug logging
	LogFormat string `toml:"log_format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:        scryfall.DefaultBaseURL,
			UserAgent:      version.UserAgent(),
			RequestTimeout: "10s",
			RateInterval:   "100ms",
			MaxRetries:     3,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        "2h",
			MaxSize:    4096,
			Persistent: true,
			DBPath:     "",
		},
		Resolver: ResolverConfig{
			BatchSize:           10,
			BatchDelay:          "100ms",
			Burst:               10,
			BurstWindow:         "1s",
			AcceptThreshold:     0.90,
			ReviewThreshold:     0.70,
			SuggestionThreshold: 0.90,
			Deadline:            "30s",
			RetryAttempts:       2,
			RetryBackoff:        "250ms",
		},
		Deck: DeckConfig{
			TargetMain:         60,
			TargetSide:         15,
			MaxCopies:          4,
			DefaultColor:       "R",
			SideColumnFraction: deckimport.DefaultSideColumnFraction,
			ExportFormat:       string(deckexport.FormatArena),
		},
		Server: ServerConfig{
			Port: 8080,
		},
		App: AppConfig{
			DebugMode: false,
			LogFormat: "text",
		},
	}
}

// Dir returns the per-user configuration directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, dirName)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return configDir, nil
}

// Path returns the path to the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration at path. Keys missing from the file keep
// their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value string
	}{
		{"catalog request timeout", c.Catalog.RequestTimeout},
		{"catalog rate interval", c.Catalog.RateInterval},
		{"cache TTL", c.Cache.TTL},
		{"resolver batch delay", c.Resolver.BatchDelay},
		{"resolver burst window", c.Resolver.BurstWindow},
		{"resolver deadline", c.Resolver.Deadline},
		{"resolver retry backoff", c.Resolver.RetryBackoff},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if v < 0 {
			return fmt.Errorf("%s cannot be negative: %s", d.name, d.value)
		}
	}

	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache max size cannot be negative: %d", c.Cache.MaxSize)
	}
	if c.Resolver.BatchSize <= 0 {
		return fmt.Errorf("resolver batch size must be positive: %d", c.Resolver.BatchSize)
	}
	if c.Resolver.Burst <= 0 {
		return fmt.Errorf("resolver burst must be positive: %d", c.Resolver.Burst)
	}
	if c.Resolver.RetryAttempts < 1 {
		return fmt.Errorf("resolver retry attempts must be at least 1: %d", c.Resolver.RetryAttempts)
	}

	r := c.Resolver
	for _, t := range []float64{r.AcceptThreshold, r.ReviewThreshold, r.SuggestionThreshold} {
		if t <= 0 || t > 1 {
			return fmt.Errorf("resolver thresholds must be in (0, 1]: %v", t)
		}
	}
	if r.ReviewThreshold > r.AcceptThreshold {
		return fmt.Errorf("review threshold %v exceeds accept threshold %v", r.ReviewThreshold, r.AcceptThreshold)
	}

	if c.Deck.TargetMain <= 0 || c.Deck.TargetSide < 0 {
		return fmt.Errorf("invalid deck targets %d/%d", c.Deck.TargetMain, c.Deck.TargetSide)
	}
	if c.Deck.MaxCopies <= 0 {
		return fmt.Errorf("max copies must be positive: %d", c.Deck.MaxCopies)
	}
	if !slices.Contains([]string{"W", "U", "B", "R", "G"}, c.Deck.DefaultColor) {
		return fmt.Errorf("invalid default color %q", c.Deck.DefaultColor)
	}
	if f := c.Deck.SideColumnFraction; f <= 0 || f >= 1 {
		return fmt.Errorf("side column fraction must be in (0, 1): %v", f)
	}
	if _, err := deckexport.ParseFormat(c.Deck.ExportFormat); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.App.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.App.LogFormat)
	}

	return nil
}

// GetCacheTTL returns the cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// GetRequestTimeout returns the catalog request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Catalog.RequestTimeout)
}

// GetDeadline returns the resolver batch deadline as a duration.
func (c *Config) GetDeadline() (time.Duration, error) {
	return time.ParseDuration(c.Resolver.Deadline)
}

// DBPath returns the scanner database path, defaulting to the config directory.
func (c *Config) DBPath() (string, error) {
	if c.Cache.DBPath != "" {
		return c.Cache.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "scanner.db"), nil
}

// PersistentCatalog reports whether catalog lookups are stored on disk.
func (c *Config) PersistentCatalog() bool {
	return c.Cache.Enabled && c.Cache.Persistent
}

// LogLevel returns the slog level implied by the app settings.
func (c *Config) LogLevel() slog.Level {
	if c.App.DebugMode {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// ScryfallOptions builds the Scryfall client options. Call Validate first;
// unparsable durations fall back to client defaults. Transport errors are
// left to the resolver's retry policy.
func (c *Config) ScryfallOptions(logger *slog.Logger) scryfall.Options {
	return scryfall.Options{
		BaseURL:          c.Catalog.BaseURL,
		UserAgent:        c.Catalog.UserAgent,
		RequestTimeout:   duration(c.Catalog.RequestTimeout),
		RateInterval:     duration(c.Catalog.RateInterval),
		MaxRetries:       c.Catalog.MaxRetries,
		NoTransportRetry: true,
		Logger:           logger,
	}
}

// ResolverOptions builds the resolver options. The persistent cache tier is
// left for the caller to attach.
func (c *Config) ResolverOptions(logger *slog.Logger) resolver.Options {
	opts := resolver.DefaultOptions()
	opts.AcceptThreshold = c.Resolver.AcceptThreshold
	opts.ReviewThreshold = c.Resolver.ReviewThreshold
	opts.SuggestionThreshold = c.Resolver.SuggestionThreshold
	opts.BatchSize = c.Resolver.BatchSize
	opts.BatchDelay = duration(c.Resolver.BatchDelay)
	opts.Burst = c.Resolver.Burst
	opts.BurstWindow = duration(c.Resolver.BurstWindow)
	opts.Deadline = duration(c.Resolver.Deadline)
	opts.Retry = resolver.RetryPolicy{
		MaxAttempts: c.Resolver.RetryAttempts,
		Backoff:     duration(c.Resolver.RetryBackoff),
	}
	opts.CacheTTL = duration(c.Cache.TTL)
	opts.CacheSize = c.Cache.MaxSize
	opts.Logger = logger
	return opts
}

// DeckOptions builds the deck completion options.
func (c *Config) DeckOptions(logger *slog.Logger) decklist.Options {
	opts := decklist.DefaultOptions()
	opts.TargetMain = c.Deck.TargetMain
	opts.TargetSide = c.Deck.TargetSide
	opts.MaxCopies = c.Deck.MaxCopies
	opts.DefaultColor = c.Deck.DefaultColor
	opts.Logger = logger
	return opts
}

// PipelineOptions builds the pipeline options from the deck settings.
func (c *Config) PipelineOptions(logger *slog.Logger) pipeline.Options {
	return pipeline.Options{
		Format:             deckexport.ExportFormat(c.Deck.ExportFormat),
		SideColumnFraction: c.Deck.SideColumnFraction,
		Deck:               c.DeckOptions(logger),
		Logger:             logger,
	}
}

func duration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
