package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/scryfall"
)

// autocompleteLimit bounds how many suggestions are returned.
const autocompleteLimit = 5

// ScryfallCatalog adapts the Scryfall client to the Catalog contract.
type ScryfallCatalog struct {
	client *scryfall.Client
}

// NewScryfallCatalog creates a catalog backed by client.
func NewScryfallCatalog(client *scryfall.Client) *ScryfallCatalog {
	return &ScryfallCatalog{client: client}
}

// LookupExact finds a card by its exact name.
func (s *ScryfallCatalog) LookupExact(ctx context.Context, name string) (*CardRecord, error) {
	card, err := s.client.GetCardNamed(ctx, name)
	return recordOrNil(card, err)
}

// LookupFuzzy lets Scryfall pick the closest unambiguous name.
func (s *ScryfallCatalog) LookupFuzzy(ctx context.Context, name string) (*CardRecord, error) {
	card, err := s.client.GetCardFuzzy(ctx, name)
	return recordOrNil(card, err)
}

// Autocomplete returns up to five name suggestions for prefix.
func (s *ScryfallCatalog) Autocomplete(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.client.Autocomplete(ctx, prefix)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if len(names) > autocompleteLimit {
		names = names[:autocompleteLimit]
	}
	return names, nil
}

// Prefetch resolves many exact names through the /cards/collection endpoint.
func (s *ScryfallCatalog) Prefetch(ctx context.Context, names []string) (map[string]*CardRecord, error) {
	cards, _, err := s.client.GetCardsByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	records := make(map[string]*CardRecord, len(cards))
	for i := range cards {
		rec := FromScryfall(&cards[i])
		records[rec.Name] = rec
	}
	return records, nil
}

func recordOrNil(card *scryfall.Card, err error) (*CardRecord, error) {
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return FromScryfall(card), nil
}

// FromScryfall converts a Scryfall card to a CardRecord.
func FromScryfall(card *scryfall.Card) *CardRecord {
	typeLine := card.FullTypeLine()
	rec := &CardRecord{
		Name:            card.Name,
		TypeLine:        typeLine,
		Colors:          card.Colors,
		ColorIdentity:   card.ColorIdentity,
		Legalities:      card.Legalities,
		IsBasicLand:     IsBasicLandType(typeLine) || IsBasicLandName(card.Name),
		SetCode:         card.SetCode,
		CollectorNumber: card.CollectorNumber,
	}
	if card.Prices.USD != nil {
		if price, err := strconv.ParseFloat(*card.Prices.USD, 64); err == nil {
			rec.PriceUSD = &price
		}
	}
	return rec
}
