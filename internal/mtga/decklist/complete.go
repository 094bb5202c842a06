package decklist

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// State is a step in the completion state machine:
// Pending → Validated, Pending → Repaired → Validated, or Pending → Emergency.
type State string

const (
	StatePending   State = "pending"
	StateValidated State = "validated"
	StateRepaired  State = "repaired"
	StateEmergency State = "emergency"
)

// Outcome is a completed deck. Its totals always match the targets.
type Outcome struct {
	Cards  []Card `json:"cards"`
	Report Report `json:"report"`
	// State is the final state; History lists every state passed through.
	State   State   `json:"state"`
	History []State `json:"history"`
	// Guaranteed is false when the emergency deck replaced the scan.
	Guaranteed bool     `json:"guaranteed"`
	Colors     []string `json:"colors"`
}

// Repaired reports whether filler or trimming changed the deck.
func (o Outcome) Repaired() bool {
	return slices.Contains(o.History, StateRepaired)
}

// Mainboard returns the mainboard cards.
func (o Outcome) Mainboard() []Card { return zoneCards(o.Cards, deckimport.ZoneMain) }

// Sideboard returns the sideboard cards.
func (o Outcome) Sideboard() []Card { return zoneCards(o.Cards, deckimport.ZoneSide) }

// Complete validates cards and repairs them until the zone totals match the
// targets and no non-basic card exceeds the copy limit. Mainboard gaps are
// filled with basic lands, sideboard gaps with staples, and overflow is
// trimmed from the least confident cards. When repair cannot converge, or
// there are no cards at all, the emergency deck is returned instead.
// The input slice is never modified.
func Complete(cards []Card, opts Options) Outcome {
	opts = opts.withDefaults()
	deck := Merge(cards)
	out := Outcome{History: []State{StatePending}}

	if len(deck) == 0 {
		return emergency(out, opts, "no confident card matches")
	}

	deckColors := DetectColors(deck, opts.DefaultColor)
	out.Colors = colorNames(deckColors)

	report := Validate(deck, opts)
	if report.IsValid {
		out.Cards = deck
		out.Report = report
		out.State = StateValidated
		out.History = append(out.History, StateValidated)
		out.Guaranteed = true
		return out
	}

	out.History = append(out.History, StateRepaired)
	nextOrder := lo.MaxBy(deck, func(a, b Card) bool { return a.Order > b.Order }).Order + 1

	mainColors := DetectColors(zoneCards(deck, deckimport.ZoneMain), "")
	if len(mainColors) == 0 {
		mainColors = deckColors
	}

	var warnings []string
	c := completer{opts: opts, nextOrder: &nextOrder, warnings: &warnings}
	main := c.repairMain(zoneCards(deck, deckimport.ZoneMain), mainColors)
	side := c.repairSide(zoneCards(deck, deckimport.ZoneSide), deckColors)

	repaired := Merge(slices.Concat(main, side))
	report = Validate(repaired, opts)
	if !report.IsValid {
		return emergency(out, opts, strings.Join(report.Errors, "; "))
	}

	report.Warnings = append(report.Warnings, warnings...)
	out.Cards = repaired
	out.Report = report
	out.State = StateValidated
	out.History = append(out.History, StateValidated)
	out.Guaranteed = true

	opts.Logger.Info("Repaired deck",
		"main", report.MainCount,
		"side", report.SideCount,
		"colors", out.Colors,
		"warnings", len(warnings))
	return out
}

// DetectColors weighs each color by the non-land, non-synthetic copies
// carrying it, in WUBRG order. With no colored cards it returns
// defaultColor alone, or nothing when defaultColor is empty.
func DetectColors(cards []Card, defaultColor string) []ColorWeight {
	weights := make(map[string]int)
	for _, c := range cards {
		if c.Synthetic || c.IsLand() {
			continue
		}
		for _, color := range c.ColorIdentity {
			weights[strings.ToUpper(color)] += c.Quantity
		}
	}

	var out []ColorWeight
	for _, color := range colorOrder {
		if w := weights[color]; w > 0 {
			out = append(out, ColorWeight{Color: color, Weight: w})
		}
	}
	if len(out) == 0 && defaultColor != "" {
		out = []ColorWeight{{Color: defaultColor, Weight: 1}}
	}
	return out
}

type completer struct {
	opts      Options
	nextOrder *int
	warnings  *[]string
}

func (c completer) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	*c.warnings = append(*c.warnings, msg)
	c.opts.Logger.Warn("Deck repair", "detail", msg)
}

func (c completer) stamp(cards []Card) []Card {
	for i := range cards {
		cards[i].Order = *c.nextOrder
		*c.nextOrder++
	}
	return cards
}

func (c completer) repairMain(cards []Card, colors []ColorWeight) []Card {
	cards = c.capCopies(cards, "mainboard")

	switch count := countZone(cards, deckimport.ZoneMain); {
	case count < c.opts.TargetMain:
		lands := c.stamp(c.opts.Filler.BasicLands(colors, c.opts.TargetMain-count))
		c.warn("added %d basic lands (%s) to reach %d mainboard cards",
			c.opts.TargetMain-count, strings.Join(colorNames(colors), ""), c.opts.TargetMain)
		cards = Merge(slices.Concat(cards, lands))
	case count > c.opts.TargetMain:
		cards = trim(cards, count-c.opts.TargetMain)
		c.warn("trimmed %d lowest-confidence mainboard cards", count-c.opts.TargetMain)
	}
	return cards
}

func (c completer) repairSide(cards []Card, colors []ColorWeight) []Card {
	cards = c.capCopies(cards, "sideboard")

	switch count := countZone(cards, deckimport.ZoneSide); {
	case count < c.opts.TargetSide:
		need := c.opts.TargetSide - count
		exclude := lo.Map(cards, func(card Card, _ int) string { return card.Name })
		staples := c.stamp(c.opts.Filler.SideboardStaples(colors, need, exclude))
		added := lo.SumBy(staples, func(card Card) int { return card.Quantity })
		c.warn("added %d sideboard staples to reach %d sideboard cards", added, c.opts.TargetSide)
		if added < need {
			c.warn("sideboard filler ran out of staples, %d slots left open", need-added)
		}
		cards = Merge(slices.Concat(cards, staples))
	case count > c.opts.TargetSide:
		cards = trim(cards, count-c.opts.TargetSide)
		c.warn("trimmed %d lowest-confidence sideboard cards", count-c.opts.TargetSide)
	}
	return cards
}

// capCopies limits every non-basic card to MaxCopies. The excess is removed;
// the caller's fill step replaces it with filler.
func (c completer) capCopies(cards []Card, zone string) []Card {
	out := slices.Clone(cards)
	for i, card := range out {
		if card.IsBasicLand || card.Quantity <= c.opts.MaxCopies {
			continue
		}
		c.warn("%s: %d copies in %s capped at %d", card.Name, card.Quantity, zone, c.opts.MaxCopies)
		out[i].Quantity = c.opts.MaxCopies
	}
	return out
}

// trim removes n copies starting from the least confident cards. Ties go
// to synthetic cards first, then to names in descending order. Cards
// reduced to zero are dropped.
func trim(cards []Card, n int) []Card {
	out := slices.Clone(cards)
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		ca, cb := out[a], out[b]
		switch {
		case ca.Confidence < cb.Confidence:
			return -1
		case ca.Confidence > cb.Confidence:
			return 1
		case ca.Synthetic != cb.Synthetic:
			if ca.Synthetic {
				return -1
			}
			return 1
		}
		return strings.Compare(cb.Name, ca.Name)
	})

	for _, i := range idx {
		if n == 0 {
			break
		}
		take := min(out[i].Quantity, n)
		out[i].Quantity -= take
		n -= take
	}
	return lo.Filter(out, func(c Card, _ int) bool { return c.Quantity > 0 })
}

// emergency replaces the deck with the placeholder list, adjusted to the
// configured targets.
func emergency(out Outcome, opts Options, reason string) Outcome {
	deck := opts.Filler.EmergencyDeck()
	nextOrder := len(deck)
	var discard []string
	c := completer{opts: opts, nextOrder: &nextOrder, warnings: &discard}

	fallback := []ColorWeight{{Color: opts.DefaultColor, Weight: 1}}
	main := fitZone(c, zoneCards(deck, deckimport.ZoneMain), deckimport.ZoneMain, opts.TargetMain, fallback)
	side := fitZone(c, zoneCards(deck, deckimport.ZoneSide), deckimport.ZoneSide, opts.TargetSide, fallback)
	cards := Merge(slices.Concat(main, side))

	report := Validate(cards, opts)
	report.Errors = append(report.Errors, fmt.Sprintf("%v: %s", ErrValidation, reason))
	report.Warnings = append(report.Warnings, "emergency deck substituted; card list does not reflect the scan")

	opts.Logger.Warn("Using emergency deck", "reason", reason)

	out.Cards = cards
	out.Report = report
	out.State = StateEmergency
	out.History = append(out.History, StateEmergency)
	out.Guaranteed = false
	out.Colors = colorNames(DetectColors(cards, opts.DefaultColor))
	return out
}

// fitZone caps and then pads with basic lands or trims from the end of the
// list until the zone holds exactly target cards.
func fitZone(c completer, cards []Card, zone deckimport.Zone, target int, colors []ColorWeight) []Card {
	cards = c.capCopies(cards, string(zone))
	count := lo.SumBy(cards, func(card Card) int { return card.Quantity })

	if count < target {
		lands := c.stamp(c.opts.Filler.BasicLands(colors, target-count))
		for i := range lands {
			lands[i].Zone = zone
		}
		return slices.Concat(cards, lands)
	}
	for i := len(cards) - 1; i >= 0 && count > target; i-- {
		take := min(cards[i].Quantity, count-target)
		cards[i].Quantity -= take
		count -= take
	}
	return lo.Filter(cards, func(card Card, _ int) bool { return card.Quantity > 0 })
}

func colorNames(colors []ColorWeight) []string {
	return lo.Map(colors, func(c ColorWeight, _ int) string { return c.Color })
}
