package pipeline

import (
	"strings"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

type entryKey struct {
	name string
	zone deckimport.Zone
}

// MergeLineSets combines the entries several OCR engines read from the same
// image. Within one set, duplicate lines add up; across sets, the larger
// quantity for a card and zone wins, since engines tend to miss copies
// rather than invent them. The result is in first-seen order with Order
// renumbered.
func MergeLineSets(sets ...[]deckimport.ParsedEntry) []deckimport.ParsedEntry {
	var (
		merged []deckimport.ParsedEntry
		index  = make(map[entryKey]int)
	)

	for _, set := range sets {
		totals := make(map[entryKey]int)
		var seen []entryKey
		first := make(map[entryKey]deckimport.ParsedEntry)

		for _, e := range set {
			key := entryKey{strings.ToLower(strings.Join(strings.Fields(e.CandidateName), " ")), e.Zone}
			if _, ok := totals[key]; !ok {
				seen = append(seen, key)
				first[key] = e
			}
			totals[key] += e.Quantity
		}

		for _, key := range seen {
			if i, ok := index[key]; ok {
				merged[i].Quantity = max(merged[i].Quantity, totals[key])
				continue
			}
			e := first[key]
			e.Quantity = totals[key]
			e.Order = len(merged)
			index[key] = len(merged)
			merged = append(merged, e)
		}
	}

	return merged
}
