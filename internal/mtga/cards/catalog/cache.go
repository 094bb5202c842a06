package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultCacheTTL bounds how long a lookup result is reused.
	DefaultCacheTTL = 2 * time.Hour
	// DefaultCacheSize caps the in-memory tier.
	DefaultCacheSize = 4096
)

// Entry is one cached catalog answer. A nil Record with no Names is a
// cached "not found".
type Entry struct {
	Record *CardRecord `json:"record,omitempty"`
	Names  []string    `json:"names,omitempty"`
}

// PersistentCache is an optional second cache tier that outlives the process.
// GetEntry returns (nil, nil) on a miss or an expired entry.
type PersistentCache interface {
	GetEntry(ctx context.Context, key string) (*Entry, error)
	PutEntry(ctx context.Context, key string, entry Entry, ttl time.Duration) error
}

// CacheOptions configures a CachedCatalog.
type CacheOptions struct {
	TTL        time.Duration
	MaxSize    int
	Persistent PersistentCache
	Logger     *slog.Logger
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Entries  int     `json:"entries"`
	HitRatio float64 `json:"hit_ratio"`
}

// CachedCatalog decorates a Catalog with a TTL cache keyed by operation and
// normalized input. Negative answers are cached too; errors are not.
type CachedCatalog struct {
	next       Catalog
	memory     *expirable.LRU[string, Entry]
	persistent PersistentCache
	ttl        time.Duration
	logger     *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedCatalog wraps next with a cache.
func NewCachedCatalog(next Catalog, opts CacheOptions) *CachedCatalog {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &CachedCatalog{
		next:       next,
		memory:     expirable.NewLRU[string, Entry](opts.MaxSize, nil, opts.TTL),
		persistent: opts.Persistent,
		ttl:        opts.TTL,
		logger:     opts.Logger,
	}
}

// LookupExact implements Catalog.
func (c *CachedCatalog) LookupExact(ctx context.Context, name string) (*CardRecord, error) {
	entry, err := c.lookup(ctx, "exact", name, func() (Entry, error) {
		rec, err := c.next.LookupExact(ctx, name)
		return Entry{Record: rec}, err
	})
	return entry.Record, err
}

// LookupFuzzy implements Catalog.
func (c *CachedCatalog) LookupFuzzy(ctx context.Context, name string) (*CardRecord, error) {
	entry, err := c.lookup(ctx, "fuzzy", name, func() (Entry, error) {
		rec, err := c.next.LookupFuzzy(ctx, name)
		return Entry{Record: rec}, err
	})
	return entry.Record, err
}

// Autocomplete implements Catalog.
func (c *CachedCatalog) Autocomplete(ctx context.Context, prefix string) ([]string, error) {
	entry, err := c.lookup(ctx, "autocomplete", prefix, func() (Entry, error) {
		names, err := c.next.Autocomplete(ctx, prefix)
		return Entry{Names: names}, err
	})
	return entry.Names, err
}

// Prefetch warms the exact-lookup cache for names in one batch when the
// wrapped catalog supports it. A requested name matches a record by its full
// name or by one of its faces. Names the batch did not find are cached as
// not found.
func (c *CachedCatalog) Prefetch(ctx context.Context, names []string) (map[string]*CardRecord, error) {
	p, ok := c.next.(Prefetcher)
	if !ok {
		return map[string]*CardRecord{}, nil
	}

	pending := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := c.memory.Peek(CacheKey("exact", name)); !ok {
			pending = append(pending, name)
		}
	}
	if len(pending) == 0 {
		return map[string]*CardRecord{}, nil
	}

	found, err := p.Prefetch(ctx, pending)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*CardRecord, len(found))
	for canonical, rec := range found {
		for _, face := range FaceNames(canonical) {
			byKey[CacheKey("exact", face)] = rec
		}
		byKey[CacheKey("exact", canonical)] = rec
	}
	for _, name := range pending {
		key := CacheKey("exact", name)
		c.store(ctx, key, Entry{Record: byKey[key]})
	}

	c.logger.Debug("Prefetched catalog entries", "requested", len(pending), "found", len(found))
	return found, nil
}

// Stats returns hit and miss counters for the in-memory tier.
func (c *CachedCatalog) Stats() CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	stats := CacheStats{
		Hits:    hits,
		Misses:  misses,
		Entries: c.memory.Len(),
	}
	if total := hits + misses; total > 0 {
		stats.HitRatio = float64(hits) / float64(total)
	}
	return stats
}

// Purge empties the in-memory tier.
func (c *CachedCatalog) Purge() {
	c.memory.Purge()
}

func (c *CachedCatalog) lookup(ctx context.Context, op, input string, fetch func() (Entry, error)) (Entry, error) {
	key := CacheKey(op, input)

	if entry, ok := c.memory.Get(key); ok {
		c.hits.Add(1)
		c.logger.Debug("Catalog cache hit", "key", key)
		return entry, nil
	}

	if c.persistent != nil {
		entry, err := c.persistent.GetEntry(ctx, key)
		if err != nil {
			c.logger.Warn("Persistent cache read failed", "key", key, "error", err)
		} else if entry != nil {
			c.hits.Add(1)
			c.memory.Add(key, *entry)
			return *entry, nil
		}
	}

	c.misses.Add(1)
	entry, err := fetch()
	if err != nil {
		return Entry{}, err
	}
	c.store(ctx, key, entry)
	return entry, nil
}

func (c *CachedCatalog) store(ctx context.Context, key string, entry Entry) {
	c.memory.Add(key, entry)
	if c.persistent == nil {
		return
	}
	if err := c.persistent.PutEntry(ctx, key, entry, c.ttl); err != nil {
		c.logger.Warn("Persistent cache write failed", "key", key, "error", err)
	}
}

// CacheKey builds the cache key for an operation on a user-supplied string:
// lowercased with whitespace collapsed.
func CacheKey(op, input string) string {
	return op + ":" + strings.Join(strings.Fields(strings.ToLower(input)), " ")
}

// FaceNames splits a multi-face name such as "Fable of the Mirror-Breaker //
// Reflection of Kiki-Jiki" into its faces. Single-faced names yield nil.
func FaceNames(name string) []string {
	if !strings.Contains(name, "//") {
		return nil
	}
	var faces []string
	for _, face := range strings.Split(name, "//") {
		if face = strings.TrimSpace(face); face != "" {
			faces = append(faces, face)
		}
	}
	return faces
}
