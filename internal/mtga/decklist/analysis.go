package decklist

import (
	"fmt"
	"math"
	"strings"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// Detected formats.
const (
	FormatStandard  = "standard"
	FormatModern    = "modern"
	FormatLegacy    = "legacy"
	FormatVintage   = "vintage"
	FormatCommander = "commander"
	FormatLimited   = "limited"
	FormatCasual    = "casual"
	FormatUnknown   = "unknown"
)

// constructedFormats are checked in order from most to least restrictive.
var constructedFormats = []string{FormatStandard, FormatModern, FormatLegacy, FormatVintage}

// Analysis summarizes a finished deck.
type Analysis struct {
	Format         string   `json:"format"`
	Commander      string   `json:"commander,omitempty"`
	ColorIdentity  []string `json:"color_identity"`
	MainCount      int      `json:"main_count"`
	SideCount      int      `json:"side_count"`
	LandCount      int      `json:"land_count"`
	LegalityIssues []string `json:"legality_issues"`
	PriceUSD       float64  `json:"price_usd"`
	UnpricedCards  int      `json:"unpriced_cards"`
}

// Analyze detects the deck's likely format, its color identity, legality
// problems in that format and its estimated price.
func Analyze(cards []Card) *Analysis {
	a := &Analysis{
		ColorIdentity: colorNames(DetectColors(cards, "")),
		MainCount:     countZone(cards, deckimport.ZoneMain),
		SideCount:     countZone(cards, deckimport.ZoneSide),
	}
	if a.ColorIdentity == nil {
		a.ColorIdentity = []string{}
	}

	for _, c := range cards {
		if c.Zone == deckimport.ZoneMain && c.IsLand() {
			a.LandCount += c.Quantity
		}
		switch {
		case c.PriceUSD != nil:
			a.PriceUSD += *c.PriceUSD * float64(c.Quantity)
		case !c.IsBasicLand:
			a.UnpricedCards++
		}
	}
	a.PriceUSD = math.Round(a.PriceUSD*100) / 100

	a.Commander = detectCommander(cards)
	a.Format = detectFormat(cards, a.MainCount, a.Commander)
	a.LegalityIssues = legalityIssues(cards, a.Format)
	return a
}

func detectCommander(cards []Card) string {
	for _, c := range cards {
		typeLine := strings.ToLower(c.TypeLine)
		if !strings.Contains(typeLine, "legendary") {
			continue
		}
		if !strings.Contains(typeLine, "creature") && !strings.Contains(typeLine, "planeswalker") {
			continue
		}
		if c.Legalities[FormatCommander] == "legal" {
			return c.Name
		}
	}
	return ""
}

func detectFormat(cards []Card, mainCount int, commander string) string {
	total := 0
	for _, c := range cards {
		total += c.Quantity
	}
	if commander != "" && (total == 99 || total == 100) {
		return FormatCommander
	}

	switch {
	case mainCount >= 58 && mainCount <= 62:
		// The deck's format is the most restrictive one every card allows.
		format := 0
		for _, c := range cards {
			if c.Synthetic || c.Legalities == nil {
				continue
			}
			format = max(format, loosestNeeded(c.Legalities))
		}
		return constructedFormats[format]
	case mainCount < 40:
		return FormatLimited
	case mainCount > 100:
		return FormatCasual
	}
	return FormatUnknown
}

// loosestNeeded returns the index of the first constructed format where
// the card is playable. Cards legal nowhere count as legacy.
func loosestNeeded(legalities map[string]string) int {
	for i, f := range constructedFormats {
		switch legalities[f] {
		case "legal", "restricted":
			return i
		}
	}
	return 2
}

func legalityIssues(cards []Card, format string) []string {
	issues := []string{}
	checkLegality := format == FormatCommander
	for _, f := range constructedFormats {
		checkLegality = checkLegality || f == format
	}

	copies := make(map[string]int)
	for _, c := range cards {
		if !c.IsBasicLand {
			copies[c.Name] += c.Quantity
		}
		if !checkLegality || c.Synthetic || c.Legalities == nil || c.Zone != deckimport.ZoneMain {
			continue
		}
		switch c.Legalities[format] {
		case "banned":
			issues = append(issues, fmt.Sprintf("%s is banned in %s", c.Name, format))
		case "restricted":
			if c.Quantity > 1 {
				issues = append(issues, fmt.Sprintf("%s is restricted to 1 copy in %s", c.Name, format))
			}
		case "legal":
		default:
			issues = append(issues, fmt.Sprintf("%s is not legal in %s", c.Name, format))
		}
	}

	if format != FormatCommander {
		for _, c := range cards {
			n, ok := copies[c.Name]
			if !ok || n <= 4 {
				continue
			}
			issues = append(issues, fmt.Sprintf("too many copies of %s (%d/4)", c.Name, n))
			delete(copies, c.Name)
		}
	}
	return issues
}
