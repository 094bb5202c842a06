package deckimport

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	mtgoLandsPattern     = regexp.MustCompile(`(?i)^\s*lands:\s*(\d+)\s*$`)
	mtgoCreaturesPattern = regexp.MustCompile(`(?i)^\s*creatures:\s*(\d+)\s*$`)
	mtgoOtherPattern     = regexp.MustCompile(`(?i)^\s*other(?:\s+spells)?:\s*(\d+)\s*$`)
	mtgoSideboardPattern = regexp.MustCompile(`(?i)^\s*sideboard:\s*(\d+)\s*$`)
	mtgoToolbarPattern   = regexp.MustCompile(`(?i)display.*sort.*apply filters`)

	counterPattern = regexp.MustCompile(`(?i)^\s*(lands|creatures|other(?:\s+spells)?|sideboard|instants|sorceries|artifacts|enchantments|planeswalkers):\s*\d+\s*$`)
)

// MTGOTotals are the per-category counters MTGO prints above its deck list.
type MTGOTotals struct {
	Lands     int `json:"lands"`
	Creatures int `json:"creatures"`
	Other     int `json:"other"`
	Sideboard int `json:"sideboard"`
}

// Mainboard returns the mainboard total implied by the category counters.
func (t MTGOTotals) Mainboard() int {
	return t.Lands + t.Creatures + t.Other
}

func isMTGOCounter(text string) bool {
	return counterPattern.MatchString(text)
}

// DetectLayout guesses the deck-builder client from UI chrome in the lines.
// Two or more MTGO indicators identify MTGO; a "Deck"/"Sideboard" header
// pair without them is treated as Arena.
func DetectLayout(lines []RawLine) Layout {
	indicators := 0
	seen := map[*regexp.Regexp]bool{}
	arenaHeader := false

	for _, line := range lines {
		for _, re := range []*regexp.Regexp{mtgoLandsPattern, mtgoCreaturesPattern, mtgoOtherPattern, mtgoSideboardPattern, mtgoToolbarPattern} {
			if !seen[re] && re.MatchString(line.Text) {
				seen[re] = true
				indicators++
			}
		}
		if strings.EqualFold(strings.TrimSpace(line.Text), "deck") {
			arenaHeader = true
		}
	}

	switch {
	case indicators >= 2:
		return LayoutMTGO
	case arenaHeader:
		return LayoutArena
	default:
		return LayoutUnknown
	}
}

// ExtractMTGOTotals reads the MTGO category counters. ok is false when no
// counter was found.
func ExtractMTGOTotals(lines []RawLine) (MTGOTotals, bool) {
	var totals MTGOTotals
	found := false

	read := func(re *regexp.Regexp, text string, dst *int) {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				*dst = n
				found = true
			}
		}
	}

	for _, line := range lines {
		read(mtgoLandsPattern, line.Text, &totals.Lands)
		read(mtgoCreaturesPattern, line.Text, &totals.Creatures)
		read(mtgoOtherPattern, line.Text, &totals.Other)
		read(mtgoSideboardPattern, line.Text, &totals.Sideboard)
	}

	return totals, found
}
