package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/api/handlers"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/metrics"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog/catalogtest"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/pipeline"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/storage"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	session := resolver.NewSession(catalogtest.Standard(), resolver.Options{
		Burst:       1000,
		BurstWindow: time.Second,
		BatchDelay:  time.Millisecond,
		Retry:       resolver.RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond},
		Logger:      logger,
	})
	collector := metrics.NewScanMetrics()
	p, err := pipeline.New(session, pipeline.Options{Logger: logger, Metrics: collector})
	require.NoError(t, err)

	services := &Services{Scanner: p, Cache: session, Metrics: collector}
	if withStore {
		svc := storage.NewService(storage.NewTestDB(t))
		services.Store = svc
		services.Persistent = svc.CatalogCache()
	}

	server, err := NewServer(&Config{Port: 9090, Logger: logger}, services)
	require.NoError(t, err)
	return server
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Data
}

func TestNewServer(t *testing.T) {
	server := newTestServer(t, false)
	assert.Equal(t, 9090, server.Port())

	_, err := NewServer(nil, &Services{})
	assert.Error(t, err, "scanner and cache are required")

	_, err = NewServer(nil, nil)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
}

func TestHealthCheck(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestScanLifecycle(t *testing.T) {
	server := newTestServer(t, true)

	body := `{"source": "bolt.json", "lines": [
		{"text": "4 Lightning Bolt"},
		{"text": "28 Mountain"},
		{"text": "Sideboard"},
		{"text": "15 Negate"}
	]}`
	rec := do(t, server, http.MethodPost, "/api/v1/scans", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	result := decodeData[pipeline.DeckResult](t, rec)
	assert.True(t, result.Guaranteed)
	assert.Equal(t, 60, result.Validation.MainCount)
	assert.Equal(t, 15, result.Validation.SideCount)
	assert.Equal(t, "bolt.json", result.Source)
	require.NotEmpty(t, result.ID)

	rec = do(t, server, http.MethodGet, "/api/v1/scans/"+result.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	scan := decodeData[storage.Scan](t, rec)
	assert.Equal(t, result.Fingerprint, scan.Fingerprint)
	assert.NotEmpty(t, scan.Cards)

	rec = do(t, server, http.MethodGet, "/api/v1/scans/"+result.ID+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, result.ExportText, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".txt")

	rec = do(t, server, http.MethodGet, "/api/v1/scans/"+result.ID+"/export?format=mtgo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SB: 4 Negate\n")

	rec = do(t, server, http.MethodGet, "/api/v1/scans/"+result.ID+"/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "section,name,quantity,set\n"))

	rec = do(t, server, http.MethodGet, "/api/v1/scans/"+result.ID+"/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rec = do(t, server, http.MethodGet, "/api/v1/scans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []storage.Scan `json:"data"`
		Count int            `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, result.ID, list.Data[0].ID)
}

func TestCreateScan_TextWithFormat(t *testing.T) {
	server := newTestServer(t, false)

	rec := do(t, server, http.MethodPost, "/api/v1/scans",
		`{"text": "4 Opt\n56 Island\n", "format": "moxfield"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	result := decodeData[pipeline.DeckResult](t, rec)
	assert.Equal(t, "moxfield", result.Format)
	assert.True(t, strings.HasPrefix(result.ExportText, "56x Island\n4x Opt\n"), result.ExportText)
}

func TestCreateScan_RequiresJSON(t *testing.T) {
	server := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(`{"text":"4 Opt"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestGetScan_NotFound(t *testing.T) {
	rec := do(t, newTestServer(t, true), http.MethodGet, "/api/v1/scans/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/api/v1/scans", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetFormats(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/api/v1/formats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	formats := decodeData[handlers.FormatsResponse](t, rec)
	assert.Len(t, formats.Text, 7)
	assert.Equal(t, []string{"csv", "json", "xlsx"}, formats.Structured)
}

func TestGetCacheStats(t *testing.T) {
	server := newTestServer(t, true)

	rec := do(t, server, http.MethodPost, "/api/v1/scans", `{"text": "4 Opt\n4 Opt\n"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, server, http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeData[handlers.CacheStatsResponse](t, rec)
	assert.Positive(t, stats.Memory.Entries)
	require.NotNil(t, stats.Persistent)
	assert.Zero(t, stats.Persistent.Entries, "no persistent tier is attached to the session")
}

func TestGetMetrics(t *testing.T) {
	server := newTestServer(t, false)

	rec := do(t, server, http.MethodPost, "/api/v1/scans", `{"text": "4 Opt\n56 Island\n"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, server, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeData[metrics.ScanStats](t, rec)
	assert.Equal(t, uint64(1), stats.Scans)
	assert.Equal(t, uint64(2), stats.Resolved)
	assert.Equal(t, float64(100), stats.GuaranteedRate)
	assert.Equal(t, 1, stats.ScanLatency.Count)
}
