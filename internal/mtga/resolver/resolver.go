// Package resolver maps OCR candidate names to canonical catalog cards.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/fuzzy"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// ResolvedEntry is a parsed entry plus its resolution. Resolved is false
// when no confident match was found; CanonicalName is then empty.
type ResolvedEntry struct {
	deckimport.ParsedEntry

	CanonicalName     string              `json:"canonical_name,omitempty"`
	Resolved          bool                `json:"resolved"`
	Confidence        float64             `json:"confidence"`
	CorrectionApplied bool                `json:"correction_applied"`
	NeedsReview       bool                `json:"needs_review"`
	Suggestions       []string            `json:"suggestions,omitempty"`
	Record            *catalog.CardRecord `json:"record,omitempty"`
	Err               error               `json:"-"`
}

// Name returns the canonical name when resolved, else the candidate name.
func (e ResolvedEntry) Name() string {
	if e.Resolved {
		return e.CanonicalName
	}
	return e.CandidateName
}

// Options configures a Session. Zero values use the defaults.
type Options struct {
	// AcceptThreshold is the confidence at or above which a match is silent.
	AcceptThreshold float64
	// ReviewThreshold is the lowest confidence accepted; matches below
	// AcceptThreshold are flagged for review.
	ReviewThreshold float64
	// SuggestionThreshold is the similarity the top autocomplete suggestion
	// must exceed to be accepted.
	SuggestionThreshold float64
	MaxSuggestions      int
	// AutocompletePrefix is how many leading characters are sent to autocomplete.
	AutocompletePrefix int

	BatchSize  int
	BatchDelay time.Duration
	// Burst requests may fire at once; further requests wait for the window.
	Burst       int
	BurstWindow time.Duration
	// Deadline bounds one ResolveBatch call. Zero relies on the caller's context.
	Deadline time.Duration
	Retry    RetryPolicy

	CacheTTL   time.Duration
	CacheSize  int
	Persistent catalog.PersistentCache

	Logger *slog.Logger
}

// DefaultOptions returns the default resolver options.
func DefaultOptions() Options {
	return Options{
		AcceptThreshold:     0.90,
		ReviewThreshold:     0.70,
		SuggestionThreshold: 0.90,
		MaxSuggestions:      5,
		AutocompletePrefix:  30,
		BatchSize:           10,
		BatchDelay:          100 * time.Millisecond,
		Burst:               10,
		BurstWindow:         time.Second,
		Retry:               DefaultRetryPolicy(),
		CacheTTL:            catalog.DefaultCacheTTL,
		CacheSize:           catalog.DefaultCacheSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.AcceptThreshold <= 0 {
		o.AcceptThreshold = d.AcceptThreshold
	}
	if o.ReviewThreshold <= 0 {
		o.ReviewThreshold = d.ReviewThreshold
	}
	if o.SuggestionThreshold <= 0 {
		o.SuggestionThreshold = d.SuggestionThreshold
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = d.MaxSuggestions
	}
	if o.AutocompletePrefix <= 0 {
		o.AutocompletePrefix = d.AutocompletePrefix
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = 0
	}
	if o.Burst <= 0 {
		o.Burst = d.Burst
	}
	if o.BurstWindow <= 0 {
		o.BurstWindow = d.BurstWindow
	}
	if o.Retry.MaxAttempts <= 0 {
		o.Retry = d.Retry
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = d.CacheTTL
	}
	if o.CacheSize <= 0 {
		o.CacheSize = d.CacheSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Session resolves names against one catalog. It owns the lookup cache and
// the burst limiter, and is safe for concurrent use.
type Session struct {
	cache  *catalog.CachedCatalog
	opts   Options
	logger *slog.Logger
}

// NewSession creates a resolution session over cat.
func NewSession(cat catalog.Catalog, opts Options) *Session {
	opts = opts.withDefaults()

	limiter := rate.NewLimiter(rate.Every(opts.BurstWindow/time.Duration(opts.Burst)), opts.Burst)
	limited := newLimitedCatalog(cat, limiter, opts.Retry, opts.Logger)

	return &Session{
		cache: catalog.NewCachedCatalog(limited, catalog.CacheOptions{
			TTL:        opts.CacheTTL,
			MaxSize:    opts.CacheSize,
			Persistent: opts.Persistent,
			Logger:     opts.Logger,
		}),
		opts:   opts,
		logger: opts.Logger,
	}
}

// CacheStats reports the session cache counters.
func (s *Session) CacheStats() catalog.CacheStats {
	return s.cache.Stats()
}

// Resolve maps a single candidate name in zone to a catalog card.
func (s *Session) Resolve(ctx context.Context, name string, zone deckimport.Zone) ResolvedEntry {
	return s.ResolveEntry(ctx, deckimport.ParsedEntry{
		Quantity:      1,
		CandidateName: name,
		Zone:          zone,
		OriginalText:  name,
	})
}

// ResolveEntry resolves one parsed entry: exact lookup, OCR corrections,
// fuzzy lookup, then autocomplete suggestions.
func (s *Session) ResolveEntry(ctx context.Context, entry deckimport.ParsedEntry) ResolvedEntry {
	out := ResolvedEntry{ParsedEntry: entry}
	name := strings.TrimSpace(entry.CandidateName)
	if name == "" {
		out.Err = ErrResolution
		return out
	}

	var suggestions []string

	// 1. Exact.
	rec, err := s.cache.LookupExact(ctx, name)
	if err != nil {
		return s.failed(out, err)
	}
	if rec != nil {
		return s.accept(out, rec, 1.0, false)
	}

	// 2. Known OCR confusions.
	if corrected := Correct(name); corrected != "" && !strings.EqualFold(corrected, name) {
		rec, err = s.cache.LookupExact(ctx, corrected)
		if err != nil {
			return s.failed(out, err)
		}
		if rec == nil {
			rec, err = s.cache.LookupFuzzy(ctx, corrected)
			if err != nil {
				return s.failed(out, err)
			}
		}
		if rec != nil {
			if conf := fuzzy.Blend(corrected, rec.Name); conf >= s.opts.ReviewThreshold {
				return s.accept(out, rec, conf, true)
			}
			suggestions = append(suggestions, rec.Name)
		}
	}

	// 3. Fuzzy with the original candidate.
	rec, err = s.cache.LookupFuzzy(ctx, name)
	if err != nil {
		return s.failed(out, err)
	}
	if rec != nil {
		conf := fuzzy.Blend(name, rec.Name)
		if conf >= s.opts.ReviewThreshold {
			return s.accept(out, rec, conf, !strings.EqualFold(rec.Name, name))
		}
		suggestions = append(suggestions, rec.Name)
	}

	// 4. Autocomplete.
	prefix := name
	if r := []rune(prefix); len(r) > s.opts.AutocompletePrefix {
		prefix = string(r[:s.opts.AutocompletePrefix])
	}
	names, err := s.cache.Autocomplete(ctx, prefix)
	if err != nil {
		return s.failed(out, err)
	}
	if len(names) > s.opts.MaxSuggestions {
		names = names[:s.opts.MaxSuggestions]
	}
	if len(names) > 0 {
		top := names[0]
		if ratio := fuzzy.Ratio(strings.ToLower(name), strings.ToLower(top)); ratio > s.opts.SuggestionThreshold {
			rec, err = s.cache.LookupExact(ctx, top)
			if err != nil {
				return s.failed(out, err)
			}
			if rec != nil {
				return s.accept(out, rec, ratio, true)
			}
		}
	}

	out.Suggestions = fuzzy.Names(fuzzy.Rank(name, dedupe(append(suggestions, names...)), 0, s.opts.MaxSuggestions))
	out.Err = ErrResolution
	s.logger.Debug("Unresolved card name", "name", name, "suggestions", out.Suggestions)
	return out
}

func (s *Session) accept(out ResolvedEntry, rec *catalog.CardRecord, confidence float64, corrected bool) ResolvedEntry {
	out.Resolved = true
	out.CanonicalName = rec.Name
	out.Record = rec
	out.Confidence = confidence
	out.CorrectionApplied = corrected
	out.NeedsReview = confidence < s.opts.AcceptThreshold
	return out
}

// failed demotes a catalog failure to an unresolved entry.
func (s *Session) failed(out ResolvedEntry, err error) ResolvedEntry {
	switch {
	case errors.Is(err, ErrTimeout) || isContextErr(err):
		out.Err = fmt.Errorf("%w: %s", ErrTimeout, out.CandidateName)
	default:
		out.Err = fmt.Errorf("%w: %w", ErrResolution, err)
	}
	s.logger.Warn("Card resolution failed", "name", out.CandidateName, "error", err)
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
