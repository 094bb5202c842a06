package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/api/response"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/metrics"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckexport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/storage"
)

// CacheSource reports in-memory lookup cache counters.
type CacheSource interface {
	CacheStats() catalog.CacheStats
}

// PersistentCacheSource reports the on-disk catalog cache contents.
type PersistentCacheSource interface {
	Stats(ctx context.Context) (storage.CatalogCacheStats, error)
}

// MetricsSource reports scan throughput and latency.
type MetricsSource interface {
	GetStats() *metrics.ScanStats
}

// SystemHandler handles format, cache and metrics API requests.
type SystemHandler struct {
	cache      CacheSource
	persistent PersistentCacheSource // nil when lookups are not persisted
	metrics    MetricsSource         // nil when scans are not measured
}

// NewSystemHandler creates a new SystemHandler. persistent and scanMetrics
// may be nil.
func NewSystemHandler(cache CacheSource, persistent PersistentCacheSource, scanMetrics MetricsSource) *SystemHandler {
	return &SystemHandler{cache: cache, persistent: persistent, metrics: scanMetrics}
}

// FormatsResponse lists the export formats.
type FormatsResponse struct {
	Text       []deckexport.ExportFormat `json:"text"`
	Structured []string                  `json:"structured"`
}

// GetFormats returns the supported export formats.
func (h *SystemHandler) GetFormats(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, FormatsResponse{
		Text:       deckexport.Formats(),
		Structured: deckexport.StructuredFormats(),
	})
}

// CacheStatsResponse combines both cache tiers.
type CacheStatsResponse struct {
	Memory     catalog.CacheStats         `json:"memory"`
	Persistent *storage.CatalogCacheStats `json:"persistent,omitempty"`
}

// GetCacheStats returns lookup cache statistics.
func (h *SystemHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	resp := CacheStatsResponse{Memory: h.cache.CacheStats()}

	if h.persistent != nil {
		stats, err := h.persistent.Stats(r.Context())
		if err != nil {
			response.InternalError(w, err)
			return
		}
		resp.Persistent = &stats
	}

	response.Success(w, resp)
}

// GetMetrics returns scan counters and latency percentiles.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	if h.metrics == nil {
		response.ServiceUnavailable(w, errors.New("scan metrics are disabled"))
		return
	}
	response.Success(w, h.metrics.GetStats())
}
