package deckimport

import "strings"

// Zone identifies the deck section a card belongs to.
type Zone string

const (
	ZoneMain Zone = "main"
	ZoneSide Zone = "sideboard"
)

// ZoneHint is an optional per-line classification supplied by the OCR engine.
type ZoneHint int

const (
	HintUnknown ZoneHint = iota
	HintMain
	HintSide
)

func (h ZoneHint) String() string {
	switch h {
	case HintMain:
		return "main"
	case HintSide:
		return "sideboard"
	default:
		return "unknown"
	}
}

// ParseZoneHint converts a textual hint ("main", "side", "sideboard") to a ZoneHint.
func ParseZoneHint(s string) ZoneHint {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "mainboard", "deck":
		return HintMain
	case "side", "sideboard", "sb":
		return HintSide
	default:
		return HintUnknown
	}
}

// Point is a text fragment position normalized to [0,1] of the image size.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawLine is one text fragment produced by an OCR engine.
type RawLine struct {
	Text       string   `json:"text"`
	ZoneHint   ZoneHint `json:"zone_hint,omitempty"`
	Position   *Point   `json:"position,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// ParsedEntry is a tokenized, zoned card line.
type ParsedEntry struct {
	Quantity      int    `json:"quantity"`
	CandidateName string `json:"candidate_name"`
	Zone          Zone   `json:"zone"`
	OriginalText  string `json:"original_text"`
	Order         int    `json:"order"` // discovery order within the scan
}

// Layout is the deck-builder client a screenshot was taken from.
type Layout string

const (
	LayoutUnknown Layout = "unknown"
	LayoutArena   Layout = "arena"
	LayoutMTGO    Layout = "mtgo"
)
