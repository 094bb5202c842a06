package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/api/response"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/scans", func(r chi.Router) {
			r.Post("/", s.scans.CreateScan)
			r.Get("/", s.scans.ListScans)
			r.Get("/{scanID}", s.scans.GetScan)
			r.Get("/{scanID}/export", s.scans.ExportScan)
		})

		r.Get("/formats", s.system.GetFormats)
		r.Get("/cache/stats", s.system.GetCacheStats)
		r.Get("/metrics", s.system.GetMetrics)
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "mtga-deckscanner-api",
		"version": version.Version,
	})
}
