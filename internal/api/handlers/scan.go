package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/api/response"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckexport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/ocr"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/pipeline"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/storage"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/timerange"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200

	// MaxScanBodyBytes bounds the body of a scan request.
	MaxScanBodyBytes = 4 << 20
)

var errHistoryDisabled = errors.New("scan history is disabled")

// Scanner turns OCR output into completed decks.
type Scanner interface {
	ProcessSets(ctx context.Context, sets ...[]deckimport.RawLine) (*pipeline.DeckResult, error)
	ProcessText(ctx context.Context, text string) (*pipeline.DeckResult, error)
}

// ScanStore keeps scan history.
type ScanStore interface {
	SaveResult(ctx context.Context, r *pipeline.DeckResult) (*storage.Scan, error)
	GetScan(ctx context.Context, id string) (*storage.Scan, error)
	ListScans(ctx context.Context, filter storage.ScanFilter) ([]*storage.Scan, error)
}

// ScanHandler handles scan-related API requests.
type ScanHandler struct {
	scanner Scanner
	store   ScanStore // nil when history is disabled
	logger  *slog.Logger
}

// NewScanHandler creates a new ScanHandler. store may be nil.
func NewScanHandler(scanner Scanner, store ScanStore, logger *slog.Logger) *ScanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanHandler{scanner: scanner, store: store, logger: logger}
}

// ScanRequest is the body of a scan request. Exactly one of Text, Lines or
// Engines is used, in that order of preference.
type ScanRequest struct {
	Source string `json:"source,omitempty"`
	// Text is a pasted deck list.
	Text string `json:"text,omitempty"`
	// Width and Height, when set, are the image size in pixels used by
	// fragment positions.
	Width  float64        `json:"width,omitempty"`
	Height float64        `json:"height,omitempty"`
	Lines  []ocr.Fragment `json:"lines,omitempty"`
	// Engines holds the fragments of several OCR engines for one image.
	Engines [][]ocr.Fragment `json:"engines,omitempty"`
	// Format overrides the export text format.
	Format string `json:"format,omitempty"`
}

func (req *ScanRequest) lineSets() ([][]deckimport.RawLine, error) {
	sets := req.Engines
	if len(req.Lines) > 0 {
		sets = [][]ocr.Fragment{req.Lines}
	}

	var out [][]deckimport.RawLine
	for _, fragments := range sets {
		lines, err := ocr.Document{Width: req.Width, Height: req.Height, Lines: fragments}.RawLines()
		if err != nil {
			return nil, err
		}
		out = append(out, lines)
	}
	return out, nil
}

// CreateScan processes OCR fragments or a pasted list and stores the result.
func (h *ScanHandler) CreateScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxScanBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	var format deckexport.ExportFormat
	if req.Format != "" {
		f, err := deckexport.ParseFormat(req.Format)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		format = f
	}

	var (
		result *pipeline.DeckResult
		err    error
	)
	if strings.TrimSpace(req.Text) != "" {
		result, err = h.scanner.ProcessText(r.Context(), req.Text)
	} else {
		sets, convErr := req.lineSets()
		if convErr != nil {
			response.BadRequest(w, convErr)
			return
		}
		if len(sets) == 0 {
			response.BadRequest(w, errors.New("text, lines or engines is required"))
			return
		}
		result, err = h.scanner.ProcessSets(r.Context(), sets...)
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}
	result.Source = req.Source

	if format != "" && string(format) != result.Format {
		text, err := deckexport.Export(result.Cards(), format)
		if err != nil {
			response.InternalError(w, err)
			return
		}
		result.ExportText = text
		result.Format = string(format)
	}

	if h.store != nil {
		if _, err := h.store.SaveResult(r.Context(), result); err != nil {
			response.InternalError(w, fmt.Errorf("failed to store scan: %w", err))
			return
		}
	}

	h.logger.Debug("Processed scan via API", "id", result.ID, "state", result.State, "guaranteed", result.Guaranteed)
	response.Created(w, result)
}

// ListScans returns recent scans without their cards.
// Query parameters: limit, since (see timerange.ParseSince), guaranteed (bool).
func (h *ScanHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.ServiceUnavailable(w, errHistoryDisabled)
		return
	}

	filter := storage.ScanFilter{Limit: defaultListLimit}
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			response.BadRequest(w, errors.New("limit must be a positive integer"))
			return
		}
		filter.Limit = min(limit, maxListLimit)
	}
	if v := q.Get("since"); v != "" {
		since, err := timerange.ParseSince(v, time.Now())
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		filter.Since = &since
	}
	if v := q.Get("guaranteed"); v != "" {
		guaranteed, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, errors.New("guaranteed must be a boolean"))
			return
		}
		filter.Guaranteed = &guaranteed
	}

	scans, err := h.store.ListScans(r.Context(), filter)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if scans == nil {
		scans = []*storage.Scan{}
	}

	response.List(w, scans, len(scans))
}

// GetScan returns a single scan with its cards.
func (h *ScanHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}
	response.Success(w, scan)
}

// ExportScan downloads a stored scan. The format query parameter accepts
// any text format or csv, json and xlsx; without it the stored export text
// is returned.
func (h *ScanHandler) ExportScan(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}

	name := "deck-" + storage.ShortID(scan.ID)
	format := strings.ToLower(r.URL.Query().Get("format"))

	if deckexport.IsStructured(format) {
		var buf bytes.Buffer
		deck := deckexport.Deck{
			Name:        name,
			Cards:       storage.DeckCards(scan),
			Unvalidated: storage.UnresolvedEntries(scan),
			Report:      storage.Report(scan),
			Guaranteed:  scan.Guaranteed,
		}
		if err := deckexport.WriteStructured(&buf, format, deck); err != nil {
			response.InternalError(w, err)
			return
		}
		response.Attachment(w, deckexport.ContentType(format), name+"."+format, buf.Bytes())
		return
	}

	if format == "" {
		format = scan.Format
	}
	textFormat, err := deckexport.ParseFormat(format)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	export, err := deckexport.ExportNamed(name, storage.DeckCards(scan), textFormat)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Attachment(w, "text/plain; charset=utf-8", export.Filename, []byte(export.Content))
}

func (h *ScanHandler) loadScan(w http.ResponseWriter, r *http.Request) (*storage.Scan, bool) {
	if h.store == nil {
		response.ServiceUnavailable(w, errHistoryDisabled)
		return nil, false
	}

	scanID := chi.URLParam(r, "scanID")
	if scanID == "" {
		response.BadRequest(w, errors.New("scan ID is required"))
		return nil, false
	}

	scan, err := h.store.GetScan(r.Context(), scanID)
	if err != nil {
		response.InternalError(w, err)
		return nil, false
	}
	if scan == nil {
		response.NotFound(w, errors.New("scan not found"))
		return nil, false
	}
	return scan, true
}
