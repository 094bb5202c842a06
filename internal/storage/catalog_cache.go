package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
)

// CatalogCache is the persistent tier behind the in-memory catalog cache.
// Entries survive restarts and expire by the TTL they were stored with.
type CatalogCache struct {
	db  *sql.DB
	now func() time.Time
}

var _ catalog.PersistentCache = (*CatalogCache)(nil)

// CatalogCacheStats describes the persistent cache contents.
type CatalogCacheStats struct {
	Entries int `json:"entries"`
	Expired int `json:"expired"`
}

// NewCatalogCache creates a catalog cache on db. The schema comes from the
// embedded migrations.
func NewCatalogCache(db *DB) *CatalogCache {
	return &CatalogCache{db: db.Conn(), now: time.Now}
}

// GetEntry returns the entry stored under key, or nil when it is missing
// or expired.
func (c *CatalogCache) GetEntry(ctx context.Context, key string) (*catalog.Entry, error) {
	query := `SELECT payload FROM catalog_cache WHERE cache_key = ? AND expires_at > ?`

	var payload string
	err := c.db.QueryRowContext(ctx, query, key, c.now().UnixMilli()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	var entry catalog.Entry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode catalog cache entry %s: %w", key, err)
	}
	return &entry, nil
}

// PutEntry stores entry under key for ttl, replacing any previous entry.
func (c *CatalogCache) PutEntry(ctx context.Context, key string, entry catalog.Entry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode catalog cache entry: %w", err)
	}

	now := c.now()
	query := `
		INSERT INTO catalog_cache (cache_key, payload, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`
	_, err = c.db.ExecContext(ctx, query, key, string(payload), now.Add(ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired entries and returns how many were removed.
func (c *CatalogCache) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM catalog_cache WHERE expires_at <= ?`, c.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge catalog cache: %w", err)
	}
	return result.RowsAffected()
}

// Clear deletes every entry.
func (c *CatalogCache) Clear(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM catalog_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear catalog cache: %w", err)
	}
	return result.RowsAffected()
}

// Stats counts live and expired entries.
func (c *CatalogCache) Stats(ctx context.Context) (CatalogCacheStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0)
		FROM catalog_cache
	`
	var stats CatalogCacheStats
	if err := c.db.QueryRowContext(ctx, query, c.now().UnixMilli()).Scan(&stats.Entries, &stats.Expired); err != nil {
		return stats, fmt.Errorf("failed to count catalog cache: %w", err)
	}
	stats.Entries -= stats.Expired
	return stats, nil
}
