// Package decklist aggregates resolved card entries into a deck and repairs
// the deck until it satisfies the constructed zone totals.
package decklist

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
)

// Card is one deck line: a canonical card and its total count in a zone.
// Cards are unique per (Name, Zone) after aggregation.
type Card struct {
	Name          string            `json:"name"`
	Quantity      int               `json:"quantity"`
	Zone          deckimport.Zone   `json:"zone"`
	Confidence    float64           `json:"confidence"`
	IsBasicLand   bool              `json:"is_basic_land"`
	ColorIdentity []string          `json:"color_identity,omitempty"`
	TypeLine      string            `json:"type_line,omitempty"`
	Synthetic     bool              `json:"synthetic,omitempty"`
	Order         int               `json:"order"`
	SetCode       string            `json:"set_code,omitempty"`
	Legalities    map[string]string `json:"legalities,omitempty"`
	PriceUSD      *float64          `json:"price_usd,omitempty"`
}

// IsLand reports whether the card is a land of any kind.
func (c Card) IsLand() bool {
	return c.IsBasicLand || strings.Contains(strings.ToLower(c.TypeLine), "land")
}

// Aggregate merges resolved entries into deck cards. Unresolved entries are
// never merged; they are returned separately in discovery order and do not
// count towards the zone totals.
func Aggregate(entries []resolver.ResolvedEntry) (cards []Card, unvalidated []resolver.ResolvedEntry) {
	var parts []Card
	for _, e := range entries {
		if !e.Resolved {
			unvalidated = append(unvalidated, e)
			continue
		}
		parts = append(parts, cardFromEntry(e))
	}

	slices.SortStableFunc(unvalidated, func(a, b resolver.ResolvedEntry) int {
		return a.Order - b.Order
	})
	if unvalidated == nil {
		unvalidated = []resolver.ResolvedEntry{}
	}
	return Merge(parts), unvalidated
}

// Merge combines cards sharing a normalized name and zone. Quantities are
// summed, confidence is the lowest contributor's and Order the earliest.
// The result is sorted by zone then name, so Merge(Merge(x)) equals Merge(x).
func Merge(cards []Card) []Card {
	type key struct {
		name string
		zone deckimport.Zone
	}

	merged := make(map[key]Card, len(cards))
	for _, c := range cards {
		if c.Quantity <= 0 {
			continue
		}
		c.Name = normalizeName(c.Name)
		if c.Name == "" {
			continue
		}
		k := key{strings.ToLower(c.Name), c.Zone}
		if prev, ok := merged[k]; ok {
			merged[k] = combine(prev, c)
			continue
		}
		merged[k] = c
	}

	out := lo.Values(merged)
	SortCards(out)
	return out
}

// SortCards orders cards mainboard first, then by name.
func SortCards(cards []Card) {
	slices.SortFunc(cards, func(a, b Card) int {
		if a.Zone != b.Zone {
			if a.Zone == deckimport.ZoneMain {
				return -1
			}
			if b.Zone == deckimport.ZoneMain {
				return 1
			}
			return strings.Compare(string(a.Zone), string(b.Zone))
		}
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// combine merges two cards with the same key. Every field is chosen by a
// rule that ignores argument order.
func combine(a, b Card) Card {
	// Descriptive fields come from the earliest-discovered contributor.
	rep, other := a, b
	if b.Order < a.Order || (b.Order == a.Order && b.Name < a.Name) {
		rep, other = b, a
	}

	out := rep
	out.Quantity = a.Quantity + b.Quantity
	out.Order = min(a.Order, b.Order)
	out.IsBasicLand = a.IsBasicLand || b.IsBasicLand

	// Filler never lowers the confidence of a card the resolver found.
	switch {
	case a.Synthetic == b.Synthetic:
		out.Confidence = min(a.Confidence, b.Confidence)
	case a.Synthetic:
		out.Confidence = b.Confidence
	default:
		out.Confidence = a.Confidence
	}
	out.Synthetic = a.Synthetic && b.Synthetic

	if out.TypeLine == "" {
		out.TypeLine = other.TypeLine
	}
	if len(out.ColorIdentity) == 0 {
		out.ColorIdentity = other.ColorIdentity
	}
	if out.Legalities == nil {
		out.Legalities = other.Legalities
	}
	if out.PriceUSD == nil {
		out.PriceUSD = other.PriceUSD
	}
	if out.SetCode == "" {
		out.SetCode = other.SetCode
	}
	return out
}

func cardFromEntry(e resolver.ResolvedEntry) Card {
	c := Card{
		Name:        e.Name(),
		Quantity:    e.Quantity,
		Zone:        e.Zone,
		Confidence:  e.Confidence,
		IsBasicLand: catalog.IsBasicLandName(e.Name()),
		Order:       e.Order,
	}
	if rec := e.Record; rec != nil {
		c.IsBasicLand = c.IsBasicLand || rec.IsBasicLand
		c.ColorIdentity = rec.ColorIdentity
		c.TypeLine = rec.TypeLine
		c.SetCode = rec.SetCode
		c.Legalities = rec.Legalities
		c.PriceUSD = rec.PriceUSD
	}
	return c
}

// normalizeName collapses whitespace and trims trailing punctuation.
func normalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return strings.TrimSpace(strings.Trim(name, ".,;:!?"))
}

func countZone(cards []Card, zone deckimport.Zone) int {
	return lo.SumBy(cards, func(c Card) int {
		if c.Zone != zone {
			return 0
		}
		return c.Quantity
	})
}

func zoneCards(cards []Card, zone deckimport.Zone) []Card {
	return lo.Filter(cards, func(c Card, _ int) bool { return c.Zone == zone })
}
