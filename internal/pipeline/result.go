package pipeline

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/decklist"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
)

// DeckResult is the outcome of one scan, ready for presentation.
type DeckResult struct {
	ID          string                   `json:"id"`
	Source      string                   `json:"source,omitempty"`
	Mainboard   []decklist.Card          `json:"mainboard"`
	Sideboard   []decklist.Card          `json:"sideboard"`
	Unvalidated []resolver.ResolvedEntry `json:"unvalidated"`
	Validation  decklist.Report          `json:"validation"`
	ExportText  string                   `json:"export_text"`
	Format      string                   `json:"format"`
	// Guaranteed is false when the deck is the emergency placeholder.
	Guaranteed  bool               `json:"guaranteed"`
	State       decklist.State     `json:"state"`
	Analysis    *decklist.Analysis `json:"analysis,omitempty"`
	Fingerprint string             `json:"fingerprint"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Cards returns the mainboard followed by the sideboard.
func (r *DeckResult) Cards() []decklist.Card {
	return slices.Concat(r.Mainboard, r.Sideboard)
}

// Fingerprint identifies a deck by its contents. Card order and name case do
// not affect it.
func Fingerprint(cards []decklist.Card) string {
	lines := make([]string, 0, len(cards))
	for _, c := range decklist.Merge(cards) {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%d", c.Zone, strings.ToLower(c.Name), c.Quantity))
	}
	slices.Sort(lines)

	sum := blake2b.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
