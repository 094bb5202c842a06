package deckimport

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// arenaSetSuffix matches the set code and collector number Arena appends to
// exported lines: "4 Lightning Bolt (M21) 123".
var arenaSetSuffix = regexp.MustCompile(`\s+\(([A-Za-z0-9]{2,6})\)(?:\s+[A-Za-z0-9-]+)?\s*$`)

// ParserOptions configures a Parser.
type ParserOptions struct {
	// SideColumnFraction is the x position beyond which a line is treated as
	// sideboard when no explicit header was seen. Zero uses
	// DefaultSideColumnFraction; a negative value disables the rule.
	SideColumnFraction float64

	Logger *slog.Logger
}

// Parser turns OCR lines into zoned deck entries.
type Parser struct {
	sideColumnFraction float64
	logger             *slog.Logger
}

// NewParser creates a new deck line parser.
func NewParser(opts ParserOptions) *Parser {
	frac := opts.SideColumnFraction
	if frac == 0 {
		frac = DefaultSideColumnFraction
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		sideColumnFraction: frac,
		logger:             logger,
	}
}

// ParseResult contains the entries parsed from one scan.
type ParseResult struct {
	Entries []ParsedEntry
	Layout  Layout
	// MTGOTotals is set when the lines carried MTGO category counters.
	MTGOTotals *MTGOTotals
	// Rejected counts lines that were not card lines.
	Rejected int
	Warnings []string
}

// MainCount returns the total quantity of mainboard entries.
func (r *ParseResult) MainCount() int {
	return r.count(ZoneMain)
}

// SideCount returns the total quantity of sideboard entries.
func (r *ParseResult) SideCount() int {
	return r.count(ZoneSide)
}

func (r *ParseResult) count(zone Zone) int {
	total := 0
	for _, e := range r.Entries {
		if e.Zone == zone {
			total += e.Quantity
		}
	}
	return total
}

// ParseLines tokenizes and zones the lines of one scan, in order.
func (p *Parser) ParseLines(lines []RawLine) *ParseResult {
	result := &ParseResult{
		Entries:  make([]ParsedEntry, 0, len(lines)),
		Layout:   DetectLayout(lines),
		Warnings: make([]string, 0),
	}

	if result.Layout == LayoutMTGO {
		if totals, ok := ExtractMTGOTotals(lines); ok {
			result.MTGOTotals = &totals
		}
	}

	classifier := NewZoneClassifier(p.sideColumnFraction)
	for _, line := range lines {
		zone, text, marker := classifier.Classify(line)
		if marker {
			continue
		}
		if text == "" {
			continue
		}

		quantity, name, ok := Tokenize(text)
		if !ok {
			result.Rejected++
			continue
		}

		result.Entries = append(result.Entries, ParsedEntry{
			Quantity:      quantity,
			CandidateName: name,
			Zone:          zone,
			OriginalText:  line.Text,
			Order:         len(result.Entries),
		})
	}

	if result.Rejected > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d line(s) were not recognized as cards", result.Rejected))
	}
	if t := result.MTGOTotals; t != nil {
		if main := result.MainCount(); t.Mainboard() > 0 && main != t.Mainboard() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("MTGO totals report %d mainboard cards, extracted %d", t.Mainboard(), main))
		}
		if side := result.SideCount(); t.Sideboard > 0 && side != t.Sideboard {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("MTGO totals report %d sideboard cards, extracted %d", t.Sideboard, side))
		}
	}

	p.logger.Debug("Parsed scan lines",
		"lines", len(lines),
		"entries", len(result.Entries),
		"rejected", result.Rejected,
		"layout", result.Layout)

	return result
}

// ParseText parses a pasted or exported deck list.
//
// Arena exports start with a "Deck" header and separate the sideboard with
// an empty line:
//
//	Deck
//	4 Lightning Bolt (M21) 123
//	2 Shock (M21) 124
//
//	2 Duress (M21) 95
//
// Other lists use an explicit "Sideboard" header or "SB:" prefixes.
func (p *Parser) ParseText(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty import string")
	}

	rawLines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	arenaExport := strings.EqualFold(strings.TrimSpace(rawLines[0]), "deck")

	lines := make([]RawLine, 0, len(rawLines))
	blankSeen := false
	for _, raw := range rawLines {
		text := strings.TrimSpace(raw)
		if text == "" {
			// Empty line switches to sideboard in Arena exports.
			if arenaExport && !blankSeen && len(lines) > 1 {
				lines = append(lines, RawLine{Text: "Sideboard"})
				blankSeen = true
			}
			continue
		}
		lines = append(lines, RawLine{Text: arenaSetSuffix.ReplaceAllString(text, "")})
	}

	result := p.ParseLines(lines)
	if len(result.Entries) == 0 {
		return result, fmt.Errorf("no cards found in import")
	}
	return result, nil
}
