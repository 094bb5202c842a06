// Package catalog defines the card catalog contract consumed by the name
// resolver, a Scryfall-backed implementation and a caching decorator.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
)

// ErrNetwork marks a catalog call that failed for transport reasons
// (unreachable, timed out, unexpected status). Not-found is never an error.
var ErrNetwork = errors.New("catalog unreachable")

// CardRecord is the authoritative description of one card.
type CardRecord struct {
	Name            string            `json:"name"`
	TypeLine        string            `json:"type_line"`
	Colors          []string          `json:"colors,omitempty"`
	ColorIdentity   []string          `json:"color_identity,omitempty"`
	Legalities      map[string]string `json:"legalities,omitempty"`
	IsBasicLand     bool              `json:"is_basic_land"`
	PriceUSD        *float64          `json:"price_usd,omitempty"`
	SetCode         string            `json:"set_code,omitempty"`
	CollectorNumber string            `json:"collector_number,omitempty"`
}

// IsLand reports whether the record's type line includes Land.
func (r *CardRecord) IsLand() bool {
	return r != nil && strings.Contains(strings.ToLower(r.TypeLine), "land")
}

// Catalog answers card name lookups. Implementations return (nil, nil)
// when no card matches.
type Catalog interface {
	LookupExact(ctx context.Context, name string) (*CardRecord, error)
	LookupFuzzy(ctx context.Context, name string) (*CardRecord, error)
	Autocomplete(ctx context.Context, prefix string) ([]string, error)
}

// Prefetcher is implemented by catalogs that can look up many exact names
// in one round trip. Found records are keyed by canonical name.
type Prefetcher interface {
	Prefetch(ctx context.Context, names []string) (map[string]*CardRecord, error)
}

// BasicLandNames lists the basic lands, exempt from the copy limit.
var BasicLandNames = []string{
	"Plains", "Island", "Swamp", "Mountain", "Forest", "Wastes",
	"Snow-Covered Plains", "Snow-Covered Island", "Snow-Covered Swamp",
	"Snow-Covered Mountain", "Snow-Covered Forest", "Snow-Covered Wastes",
}

var basicLandSet = lo.Associate(BasicLandNames, func(name string) (string, bool) {
	return strings.ToLower(name), true
})

// IsBasicLandName reports whether name is a basic land, ignoring case.
func IsBasicLandName(name string) bool {
	return basicLandSet[strings.ToLower(strings.TrimSpace(name))]
}

// IsBasicLandType reports whether a type line describes a basic land.
func IsBasicLandType(typeLine string) bool {
	lower := strings.ToLower(typeLine)
	return strings.Contains(lower, "basic") && strings.Contains(lower, "land")
}
