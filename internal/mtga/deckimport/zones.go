package deckimport

import (
	"strings"
	"unicode"
)

// DefaultSideColumnFraction is the x position (fraction of image width)
// beyond which Arena renders its sideboard column.
const DefaultSideColumnFraction = 0.82

var sideboardMarkers = map[string]bool{
	"sideboard": true,
	"side":      true,
	"reserve":   true,
	"sb":        true,
}

var mainboardMarkers = map[string]bool{
	"deck":      true,
	"main":      true,
	"mainboard": true,
	"main deck": true,
}

// ZoneClassifier is a single-pass state machine assigning lines to zones.
// It starts in ZoneMain and, once a sideboard header is seen, stays in
// ZoneSide for the rest of the scan.
type ZoneClassifier struct {
	state              Zone
	sideColumnFraction float64
	useSpatial         bool
	sawHeader          bool
}

// NewZoneClassifier creates a classifier. A sideColumnFraction <= 0
// disables the spatial rule.
func NewZoneClassifier(sideColumnFraction float64) *ZoneClassifier {
	return &ZoneClassifier{
		state:              ZoneMain,
		sideColumnFraction: sideColumnFraction,
		useSpatial:         sideColumnFraction > 0,
	}
}

// State returns the current zone.
func (c *ZoneClassifier) State() Zone {
	return c.state
}

// SawSideboardHeader reports whether an explicit sideboard header was consumed.
func (c *ZoneClassifier) SawSideboardHeader() bool {
	return c.sawHeader
}

// Classify consumes one line. When the line is a section marker it returns
// marker=true and the line must not be emitted as a card. Otherwise it
// returns the zone for the line and the text with any zone prefix removed.
func (c *ZoneClassifier) Classify(line RawLine) (zone Zone, text string, marker bool) {
	header := normalizeHeader(line.Text)
	if sideboardMarkers[header] {
		c.state = ZoneSide
		c.sawHeader = true
		return ZoneSide, "", true
	}
	if mainboardMarkers[header] {
		return c.state, "", true
	}

	text = strings.TrimSpace(line.Text)
	zone = c.state

	// MTGO marks sideboard cards per line: "SB: 2 Negate".
	if rest, ok := cutPrefixFold(text, "sb:"); ok {
		return ZoneSide, strings.TrimSpace(rest), false
	}

	// Explicit header transitions dominate the advisory rules below.
	if c.sawHeader {
		return zone, text, false
	}
	if line.ZoneHint == HintSide {
		return ZoneSide, text, false
	}
	if c.useSpatial && line.Position != nil && line.Position.X > c.sideColumnFraction {
		return ZoneSide, text, false
	}
	return zone, text, false
}

// normalizeHeader reduces a line to lowercase letters and single spaces so
// "Sideboard (15)", "SIDEBOARD:" and "Sideboard 15" all read "sideboard".
func normalizeHeader(text string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
