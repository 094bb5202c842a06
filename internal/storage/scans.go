package storage

import (
	"context"
	"strings"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/decklist"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/pipeline"
)

// ScanFromResult converts a pipeline result into its stored form.
func ScanFromResult(r *pipeline.DeckResult) *Scan {
	scan := &Scan{
		ID:          r.ID,
		Source:      r.Source,
		Format:      r.Format,
		State:       string(r.State),
		Guaranteed:  r.Guaranteed,
		Fingerprint: r.Fingerprint,
		MainCount:   r.Validation.MainCount,
		SideCount:   r.Validation.SideCount,
		ExportText:  r.ExportText,
		Warnings:    r.Validation.Warnings,
		Errors:      r.Validation.Errors,
		CreatedAt:   r.CreatedAt,
	}

	for _, c := range r.Cards() {
		scan.Cards = append(scan.Cards, &ScanCard{
			Name:       c.Name,
			Quantity:   c.Quantity,
			Board:      string(c.Zone),
			Confidence: c.Confidence,
			Synthetic:  c.Synthetic,
			BasicLand:  c.IsBasicLand,
			SetCode:    c.SetCode,
			Position:   c.Order,
		})
	}
	for _, e := range r.Unvalidated {
		scan.Unresolved = append(scan.Unresolved, &UnresolvedLine{
			OriginalText:  e.OriginalText,
			CandidateName: e.CandidateName,
			Quantity:      e.Quantity,
			Board:         string(e.Zone),
			Suggestions:   e.Suggestions,
			Position:      e.Order,
		})
	}
	return scan
}

// SaveResult stores a pipeline result and returns the stored scan.
func (s *Service) SaveResult(ctx context.Context, r *pipeline.DeckResult) (*Scan, error) {
	scan := ScanFromResult(r)
	if err := s.StoreScan(ctx, scan); err != nil {
		return nil, err
	}
	return scan, nil
}

// DeckCards rebuilds the deck of a stored scan.
func DeckCards(scan *Scan) []decklist.Card {
	cards := make([]decklist.Card, 0, len(scan.Cards))
	for _, c := range scan.Cards {
		cards = append(cards, decklist.Card{
			Name:        c.Name,
			Quantity:    c.Quantity,
			Zone:        deckimport.Zone(c.Board),
			Confidence:  c.Confidence,
			IsBasicLand: c.BasicLand,
			Synthetic:   c.Synthetic,
			Order:       c.Position,
			SetCode:     c.SetCode,
		})
	}
	return cards
}

// UnresolvedEntries rebuilds the unresolved lines of a stored scan.
func UnresolvedEntries(scan *Scan) []resolver.ResolvedEntry {
	entries := make([]resolver.ResolvedEntry, 0, len(scan.Unresolved))
	for _, u := range scan.Unresolved {
		entries = append(entries, resolver.ResolvedEntry{
			ParsedEntry: deckimport.ParsedEntry{
				Quantity:      u.Quantity,
				CandidateName: u.CandidateName,
				Zone:          deckimport.Zone(u.Board),
				OriginalText:  u.OriginalText,
				Order:         u.Position,
			},
			Suggestions: u.Suggestions,
		})
	}
	return entries
}

// Report rebuilds the validation report of a stored scan. Only completed
// decks are stored, so the report is always structurally valid.
func Report(scan *Scan) decklist.Report {
	return decklist.Report{
		IsValid:   true,
		MainCount: scan.MainCount,
		SideCount: scan.SideCount,
		Errors:    scan.Errors,
		Warnings:  scan.Warnings,
	}
}

// ShortID returns the first segment of a scan ID for display.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
