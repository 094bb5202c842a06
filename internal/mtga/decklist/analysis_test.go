package decklist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

func legal(formats ...string) map[string]string {
	l := map[string]string{"standard": "not_legal", "modern": "not_legal", "legacy": "not_legal", "vintage": "not_legal", "commander": "not_legal"}
	for _, f := range formats {
		l[f] = "legal"
	}
	return l
}

func price(v float64) *float64 { return &v }

func sixtyWith(extra ...Card) []Card {
	cards := []Card{basic("Mountain", 60-len(extra)*4, deckimport.ZoneMain)}
	for _, c := range extra {
		c.Quantity = 4
		c.Zone = deckimport.ZoneMain
		cards = append(cards, c)
	}
	return cards
}

func TestAnalyze_Format(t *testing.T) {
	standard := Card{Name: "Play with Fire", ColorIdentity: []string{"R"}, Legalities: legal("standard", "modern", "legacy", "vintage")}
	modern := Card{Name: "Lightning Bolt", ColorIdentity: []string{"R"}, Legalities: legal("modern", "legacy", "vintage")}
	legacy := Card{Name: "Chain Lightning", ColorIdentity: []string{"R"}, Legalities: legal("legacy", "vintage")}

	tests := []struct {
		name  string
		cards []Card
		want  string
	}{
		{"standard", sixtyWith(standard), FormatStandard},
		{"modern card widens", sixtyWith(standard, modern), FormatModern},
		{"loosest card wins", sixtyWith(modern, legacy, standard), FormatLegacy},
		{"limited", []Card{basic("Forest", 30, deckimport.ZoneMain)}, FormatLimited},
		{"casual", []Card{basic("Forest", 120, deckimport.ZoneMain)}, FormatCasual},
		{"unknown size", []Card{basic("Forest", 50, deckimport.ZoneMain)}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyze(tt.cards).Format)
		})
	}
}

func TestAnalyze_Commander(t *testing.T) {
	general := Card{
		Name: "Krenko, Mob Boss", Quantity: 1, Zone: deckimport.ZoneMain,
		TypeLine: "Legendary Creature — Goblin Warrior", ColorIdentity: []string{"R"},
		Legalities: legal("commander", "legacy", "vintage"),
	}
	cards := []Card{general, basic("Mountain", 99, deckimport.ZoneMain)}

	a := Analyze(cards)

	assert.Equal(t, "Krenko, Mob Boss", a.Commander)
	assert.Equal(t, FormatCommander, a.Format)
	assert.Empty(t, a.LegalityIssues)
}

func TestAnalyze_LegalityIssues(t *testing.T) {
	banned := legal("modern", "legacy", "vintage")
	banned["modern"] = "banned"
	restricted := legal("legacy")
	restricted["vintage"] = "restricted"
	restricted["legacy"] = "banned"

	cards := []Card{
		basic("Mountain", 50, deckimport.ZoneMain),
		{Name: "Lightning Bolt", Quantity: 4, Zone: deckimport.ZoneMain, Legalities: legal("modern", "legacy", "vintage")},
		{Name: "Lightning Bolt", Quantity: 2, Zone: deckimport.ZoneSide, Legalities: legal("modern", "legacy", "vintage")},
		{Name: "Mishra's Workshop", Quantity: 2, Zone: deckimport.ZoneMain, Legalities: restricted},
		{Name: "Chrome Mox", Quantity: 4, Zone: deckimport.ZoneMain, Legalities: banned},
	}

	a := Analyze(cards)

	assert.Equal(t, FormatVintage, a.Format)
	assert.ElementsMatch(t, []string{
		"Mishra's Workshop is restricted to 1 copy in vintage",
		"too many copies of Lightning Bolt (6/4)",
	}, a.LegalityIssues)
}

func TestAnalyze_PriceAndColors(t *testing.T) {
	cards := []Card{
		{Name: "Lightning Helix", Quantity: 4, Zone: deckimport.ZoneMain, ColorIdentity: []string{"R", "W"}, PriceUSD: price(0.25)},
		{Name: "Sacred Foundry", Quantity: 4, Zone: deckimport.ZoneMain, TypeLine: "Land — Mountain Plains", ColorIdentity: []string{"R", "W"}, PriceUSD: price(12.5)},
		{Name: "Negate", Quantity: 2, Zone: deckimport.ZoneSide, ColorIdentity: []string{"U"}},
		basic("Mountain", 20, deckimport.ZoneMain),
	}

	a := Analyze(cards)

	assert.Equal(t, []string{"W", "U", "R"}, a.ColorIdentity)
	assert.InDelta(t, 51.0, a.PriceUSD, 0.001)
	assert.Equal(t, 1, a.UnpricedCards)
	assert.Equal(t, 24, a.LandCount)
	assert.Equal(t, 28, a.MainCount)
	assert.Equal(t, 2, a.SideCount)
}

func ExampleAnalyze() {
	cards := []Card{
		{Name: "Lightning Bolt", Quantity: 4, Zone: deckimport.ZoneMain, ColorIdentity: []string{"R"},
			Legalities: map[string]string{"standard": "not_legal", "modern": "legal"}},
		{Name: "Mountain", Quantity: 56, Zone: deckimport.ZoneMain, IsBasicLand: true},
	}

	a := Analyze(cards)
	fmt.Println(a.Format, a.ColorIdentity, a.LandCount)
	// Output: modern [R] 56
}
