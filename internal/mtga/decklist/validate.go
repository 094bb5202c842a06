package decklist

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// ErrValidation means a deck could not be repaired to the target totals.
var ErrValidation = errors.New("deck validation failed")

// Options configures validation and completion. Zero values use the
// constructed defaults of 60 mainboard, 15 sideboard and 4 copies.
type Options struct {
	TargetMain int
	TargetSide int
	// ExactSide takes TargetSide as given, so zero means no sideboard.
	ExactSide bool
	MaxCopies int
	// DefaultColor is used for basic land filler when no colors are detected.
	DefaultColor string
	Filler       FillerStrategy
	Logger       *slog.Logger
}

// DefaultOptions returns the constructed-format targets.
func DefaultOptions() Options {
	return Options{
		TargetMain:   60,
		TargetSide:   15,
		ExactSide:    true,
		MaxCopies:    4,
		DefaultColor: "R",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TargetMain <= 0 {
		o.TargetMain = d.TargetMain
	}
	if o.TargetSide < 0 || (o.TargetSide == 0 && !o.ExactSide) {
		o.TargetSide = d.TargetSide
	}
	if o.MaxCopies <= 0 {
		o.MaxCopies = d.MaxCopies
	}
	o.DefaultColor = strings.ToUpper(strings.TrimSpace(o.DefaultColor))
	if !slices.Contains(colorOrder, o.DefaultColor) {
		o.DefaultColor = d.DefaultColor
	}
	if o.Filler == nil {
		o.Filler = DefaultFiller().WithMaxCopies(o.MaxCopies)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Report is the result of validating a deck.
type Report struct {
	IsValid   bool     `json:"is_valid"`
	MainCount int      `json:"main_count"`
	SideCount int      `json:"side_count"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// Validate checks zone totals and the per-card copy limit. Basic lands are
// exempt from the copy limit.
func Validate(cards []Card, opts Options) Report {
	opts = opts.withDefaults()

	r := Report{
		MainCount: countZone(cards, deckimport.ZoneMain),
		SideCount: countZone(cards, deckimport.ZoneSide),
		Errors:    []string{},
		Warnings:  []string{},
	}

	if r.MainCount != opts.TargetMain {
		r.Errors = append(r.Errors, fmt.Sprintf("mainboard has %d cards, expected %d", r.MainCount, opts.TargetMain))
	}
	if r.SideCount != opts.TargetSide {
		r.Errors = append(r.Errors, fmt.Sprintf("sideboard has %d cards, expected %d", r.SideCount, opts.TargetSide))
	}
	for _, c := range cards {
		if c.Quantity < 0 {
			r.Errors = append(r.Errors, fmt.Sprintf("%s has negative quantity %d", c.Name, c.Quantity))
		}
		if !c.IsBasicLand && c.Quantity > opts.MaxCopies {
			r.Errors = append(r.Errors, fmt.Sprintf("%s (%s) has %d copies, limit is %d", c.Name, c.Zone, c.Quantity, opts.MaxCopies))
		}
	}

	r.IsValid = len(r.Errors) == 0
	return r
}
