// Package pipeline turns the text fragments of one deck image into a
// canonical, complete deck.
//
// A Pipeline owns nothing but configuration; the resolver session it is
// given carries the cache and rate limits, so one session should be shared
// by every scan in a process.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckexport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/decklist"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/metrics"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/ocr"
)

// ErrNoLines is returned when no extractor produced any text.
var ErrNoLines = errors.New("no text extracted")

// Options configures a Pipeline.
type Options struct {
	// Format is the export text format. Empty means arena.
	Format deckexport.ExportFormat
	// SideColumnFraction is passed to the zone classifier.
	SideColumnFraction float64
	Deck               decklist.Options
	// Metrics, when set, records every completed scan.
	Metrics            *metrics.ScanMetrics
	Logger             *slog.Logger
	// Now stamps results; it defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs scans: parse, resolve, aggregate, complete, analyze, export.
type Pipeline struct {
	session *resolver.Session
	parser  *deckimport.Parser
	opts    Options
	logger  *slog.Logger
}

// New creates a pipeline resolving names through session.
func New(session *resolver.Session, opts Options) (*Pipeline, error) {
	if session == nil {
		return nil, fmt.Errorf("resolver session cannot be nil")
	}
	format, err := deckexport.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Deck.Logger == nil {
		opts.Deck.Logger = opts.Logger
	}

	return &Pipeline{
		session: session,
		parser: deckimport.NewParser(deckimport.ParserOptions{
			SideColumnFraction: opts.SideColumnFraction,
			Logger:             opts.Logger,
		}),
		opts:   opts,
		logger: opts.Logger,
	}, nil
}

// Format returns the export format results are rendered in.
func (p *Pipeline) Format() deckexport.ExportFormat {
	return p.opts.Format
}

// Process runs one scan over lines.
func (p *Pipeline) Process(ctx context.Context, lines []deckimport.RawLine) (*DeckResult, error) {
	return p.ProcessSets(ctx, lines)
}

// ProcessSets runs one scan over the output of several OCR engines for the
// same image, merging their entries with MergeLineSets.
func (p *Pipeline) ProcessSets(ctx context.Context, sets ...[]deckimport.RawLine) (*DeckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, ErrNoLines
	}

	var (
		entrySets [][]deckimport.ParsedEntry
		warnings  []string
	)
	for _, lines := range sets {
		parsed := p.parser.ParseLines(lines)
		entrySets = append(entrySets, parsed.Entries)
		warnings = append(warnings, parsed.Warnings...)
	}

	entries := entrySets[0]
	if len(entrySets) > 1 {
		entries = MergeLineSets(entrySets...)
	}

	return p.complete(ctx, entries, warnings)
}

// ProcessText runs one scan over a pasted deck list.
func (p *Pipeline) ProcessText(ctx context.Context, text string) (*DeckResult, error) {
	parsed, err := p.parser.ParseText(text)
	if err != nil && parsed == nil {
		return nil, err
	}
	// A list without recognizable cards still yields the emergency deck.
	return p.complete(ctx, parsed.Entries, parsed.Warnings)
}

// Scan extracts lines from source with every extractor and processes them.
// Extractors run concurrently; one failing is logged and skipped, all
// failing is an error.
func (p *Pipeline) Scan(ctx context.Context, source string, extractors ...ocr.LineExtractor) (*DeckResult, error) {
	if len(extractors) == 0 {
		ext, err := ocr.ForPath(source)
		if err != nil {
			return nil, err
		}
		extractors = []ocr.LineExtractor{ext}
	}

	sets := make([][]deckimport.RawLine, len(extractors))
	errs := make([]error, len(extractors))
	var g errgroup.Group
	for i, ext := range extractors {
		g.Go(func() error {
			sets[i], errs[i] = ext.ExtractLines(ctx, source)
			return nil
		})
	}
	_ = g.Wait()

	var usable [][]deckimport.RawLine
	for i, set := range sets {
		if errs[i] != nil {
			p.logger.Warn("OCR extractor failed", "source", source, "extractor", i, "error", errs[i])
			continue
		}
		if len(set) > 0 {
			usable = append(usable, set)
		}
	}
	if len(usable) == 0 {
		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", source, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoLines, source)
	}

	result, err := p.ProcessSets(ctx, usable...)
	if err != nil {
		return nil, err
	}
	result.Source = source
	return result, nil
}

func (p *Pipeline) complete(ctx context.Context, entries []deckimport.ParsedEntry, warnings []string) (*DeckResult, error) {
	start := p.opts.Now()

	resolved := p.session.ResolveBatch(ctx, entries)
	resolvedAt := p.opts.Now()
	cards, unvalidated := decklist.Aggregate(resolved)
	warnings = append(warnings, resolutionWarnings(resolved)...)

	outcome := decklist.Complete(cards, p.opts.Deck)

	text, err := deckexport.Export(outcome.Cards, p.opts.Format)
	if err != nil {
		return nil, err
	}

	report := outcome.Report
	report.Warnings = append(warnings, report.Warnings...)
	if report.Warnings == nil {
		report.Warnings = []string{}
	}

	result := &DeckResult{
		ID:          uuid.NewString(),
		Mainboard:   outcome.Mainboard(),
		Sideboard:   outcome.Sideboard(),
		Unvalidated: unvalidated,
		Validation:  report,
		ExportText:  text,
		Format:      string(p.opts.Format),
		Guaranteed:  outcome.Guaranteed,
		State:       outcome.State,
		Analysis:    decklist.Analyze(outcome.Cards),
		Fingerprint: Fingerprint(outcome.Cards),
		CreatedAt:   p.opts.Now().UTC(),
	}

	end := p.opts.Now()
	if p.opts.Metrics != nil {
		p.opts.Metrics.RecordScan(metrics.ScanSample{
			State:      string(result.State),
			Guaranteed: result.Guaranteed,
			Resolved:   len(resolved) - len(unvalidated),
			Unresolved: len(unvalidated),
			Resolve:    resolvedAt.Sub(start),
			Complete:   end.Sub(resolvedAt),
			Total:      end.Sub(start),
		})
	}

	p.logger.Info("Processed scan",
		"id", result.ID,
		"entries", len(entries),
		"unresolved", len(unvalidated),
		"state", result.State,
		"guaranteed", result.Guaranteed,
		"duration", end.Sub(start))

	return result, nil
}

// resolutionWarnings describes unresolved and doubtful matches.
func resolutionWarnings(entries []resolver.ResolvedEntry) []string {
	var out []string
	for _, e := range entries {
		switch {
		case !e.Resolved:
			msg := fmt.Sprintf("could not resolve %q (%d in %s)", e.CandidateName, e.Quantity, e.Zone)
			if len(e.Suggestions) > 0 {
				msg += "; did you mean " + strings.Join(e.Suggestions, ", ") + "?"
			}
			out = append(out, msg)
		case e.NeedsReview:
			out = append(out, fmt.Sprintf("%q matched %s with confidence %.2f", e.CandidateName, e.CanonicalName, e.Confidence))
		}
	}
	return out
}
