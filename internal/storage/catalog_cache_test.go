package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestCatalogCache(t *testing.T) (*CatalogCache, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCatalogCache(NewTestDB(t))
	cache.now = clock.Now
	return cache, clock
}

func TestCatalogCache_PutGet(t *testing.T) {
	cache, _ := newTestCatalogCache(t)
	ctx := t.Context()

	entry := catalog.Entry{Record: &catalog.CardRecord{
		Name:       "Lightning Bolt",
		TypeLine:   "Instant",
		Colors:     []string{"R"},
		Legalities: map[string]string{"modern": "legal"},
	}}
	require.NoError(t, cache.PutEntry(ctx, "named:lightning bolt", entry, time.Hour))

	got, err := cache.GetEntry(ctx, "named:lightning bolt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, *got)

	missing, err := cache.GetEntry(ctx, "named:nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCatalogCache_PutReplaces(t *testing.T) {
	cache, _ := newTestCatalogCache(t)
	ctx := t.Context()

	require.NoError(t, cache.PutEntry(ctx, "k", catalog.Entry{Names: []string{"Opt", "Optimus"}}, time.Hour))
	require.NoError(t, cache.PutEntry(ctx, "k", catalog.Entry{Record: &catalog.CardRecord{Name: "Opt"}}, time.Hour))

	got, err := cache.GetEntry(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Record)
	assert.Equal(t, "Opt", got.Record.Name)
	assert.Empty(t, got.Names)
}

func TestCatalogCache_Expiry(t *testing.T) {
	cache, clock := newTestCatalogCache(t)
	ctx := t.Context()

	require.NoError(t, cache.PutEntry(ctx, "short", catalog.Entry{Names: []string{"Shock"}}, time.Minute))
	require.NoError(t, cache.PutEntry(ctx, "long", catalog.Entry{Names: []string{"Shock"}}, time.Hour))

	clock.now = clock.now.Add(2 * time.Minute)

	got, err := cache.GetEntry(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entries are not returned")

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CatalogCacheStats{Entries: 1, Expired: 1}, stats)

	purged, err := cache.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	stats, err = cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CatalogCacheStats{Entries: 1}, stats)

	got, err = cache.GetEntry(ctx, "long")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCatalogCache_Clear(t *testing.T) {
	cache, _ := newTestCatalogCache(t)
	ctx := t.Context()

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, cache.PutEntry(ctx, key, catalog.Entry{}, time.Hour))
	}

	cleared, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}
