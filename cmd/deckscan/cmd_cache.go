package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var cachePurgeAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the on-disk catalog cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many catalog lookups are cached",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired catalog lookups",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := requireStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.CatalogCache().Stats(cmd.Context())
	if err != nil {
		return err
	}
	path, err := cfg.DBPath()
	if err != nil {
		return err
	}

	t := newTable("DATABASE", "LIVE", "EXPIRED", "TTL", "PERSISTENT")
	t.addRow(path, strconv.Itoa(stats.Entries), strconv.Itoa(stats.Expired), cfg.Cache.TTL, strconv.FormatBool(cfg.PersistentCatalog()))
	fmt.Fprint(cmd.OutOrStdout(), t.String())
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	store, err := requireStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cache := store.CatalogCache()
	purge := cache.PurgeExpired
	what := "expired"
	if cachePurgeAll {
		purge = cache.Clear
		what = "cached"
	}

	n, err := purge(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s lookups.\n", n, what)
	return nil
}
