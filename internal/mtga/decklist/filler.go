package decklist

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

//go:embed filler.yaml
var fillerYAML []byte

// colorOrder is the canonical WUBRG order.
var colorOrder = []string{"W", "U", "B", "R", "G"}

// colorless keys the staples that fit any deck.
const colorless = "C"

// ColorWeight is a detected deck color and the number of non-land copies
// that carry it.
type ColorWeight struct {
	Color  string `json:"color"`
	Weight int    `json:"weight"`
}

// FillerStrategy chooses the synthetic cards used to complete a deck.
// Returned cards are marked Synthetic.
type FillerStrategy interface {
	// BasicLands returns n mainboard basic lands split across colors.
	BasicLands(colors []ColorWeight, n int) []Card
	// SideboardStaples returns up to n sideboard cards suited to colors,
	// skipping any name in exclude.
	SideboardStaples(colors []ColorWeight, n int, exclude []string) []Card
	// EmergencyDeck returns the fixed placeholder deck.
	EmergencyDeck() []Card
}

type fillerCard struct {
	Name     string `yaml:"name"`
	Quantity int    `yaml:"quantity"`
	TypeLine string `yaml:"type_line"`
}

type fillerData struct {
	BasicLands map[string]string       `yaml:"basic_lands"`
	Staples    map[string][]fillerCard `yaml:"staples"`
	Emergency  struct {
		Color string       `yaml:"color"`
		Main  []fillerCard `yaml:"main"`
		Side  []fillerCard `yaml:"side"`
	} `yaml:"emergency"`
}

// TableFiller is a FillerStrategy driven by a YAML table of basic lands,
// per-color sideboard staples and an emergency deck.
type TableFiller struct {
	data      fillerData
	maxCopies int
}

var defaultFiller = sync.OnceValue(func() *TableFiller {
	f, err := LoadFiller(fillerYAML)
	if err != nil {
		panic(fmt.Sprintf("decklist: embedded filler table: %v", err))
	}
	return f
})

// DefaultFiller returns the filler built from the embedded table.
func DefaultFiller() *TableFiller {
	return defaultFiller()
}

// LoadFiller parses a filler table.
func LoadFiller(data []byte) (*TableFiller, error) {
	var fd fillerData
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("failed to parse filler table: %w", err)
	}

	for _, color := range colorOrder {
		if fd.BasicLands[color] == "" {
			return nil, fmt.Errorf("no basic land for color %s", color)
		}
	}
	if fd.Emergency.Color == "" {
		fd.Emergency.Color = "R"
	}
	if len(fd.Emergency.Main) == 0 {
		return nil, fmt.Errorf("emergency deck has no mainboard")
	}
	for _, list := range [][]fillerCard{fd.Emergency.Main, fd.Emergency.Side} {
		for _, c := range list {
			if c.Name == "" || c.Quantity <= 0 {
				return nil, fmt.Errorf("invalid emergency card %q x%d", c.Name, c.Quantity)
			}
		}
	}
	return &TableFiller{data: fd, maxCopies: DefaultOptions().MaxCopies}, nil
}

// WithMaxCopies returns a copy of the filler that never emits more than n
// copies of a non-basic card.
func (f *TableFiller) WithMaxCopies(n int) *TableFiller {
	cp := *f
	if n > 0 {
		cp.maxCopies = n
	}
	return &cp
}

// BasicLands splits n lands across colors in proportion to their weights.
// Rounding remainders go to the earliest colors.
func (f *TableFiller) BasicLands(colors []ColorWeight, n int) []Card {
	if n <= 0 || len(colors) == 0 {
		return nil
	}

	total := 0
	for _, c := range colors {
		total += max(c.Weight, 0)
	}

	counts := make([]int, len(colors))
	allocated := 0
	for i, c := range colors {
		if total == 0 {
			counts[i] = n / len(colors)
		} else {
			counts[i] = n * max(c.Weight, 0) / total
		}
		allocated += counts[i]
	}
	for i := 0; allocated < n; i = (i + 1) % len(colors) {
		counts[i]++
		allocated++
	}

	var lands []Card
	for i, c := range colors {
		name := f.data.BasicLands[c.Color]
		if counts[i] == 0 || name == "" {
			continue
		}
		lands = append(lands, Card{
			Name:          name,
			Quantity:      counts[i],
			Zone:          deckimport.ZoneMain,
			IsBasicLand:   true,
			ColorIdentity: []string{c.Color},
			TypeLine:      "Basic Land — " + name,
			Synthetic:     true,
		})
	}
	return lands
}

// SideboardStaples fills n slots from the staples of each color in the
// order given, then the colorless staples. Listed quantities are used
// first; if that falls short every staple is topped up to the copy limit.
func (f *TableFiller) SideboardStaples(colors []ColorWeight, n int, exclude []string) []Card {
	if n <= 0 {
		return nil
	}

	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[strings.ToLower(name)] = true
	}

	type candidate struct {
		fillerCard
		color string
	}
	var candidates []candidate
	add := func(color string) {
		for _, s := range f.data.Staples[color] {
			key := strings.ToLower(s.Name)
			if skip[key] {
				continue
			}
			skip[key] = true
			candidates = append(candidates, candidate{fillerCard: s, color: color})
		}
	}
	for _, c := range colors {
		add(c.Color)
	}
	add(colorless)

	counts := make([]int, len(candidates))
	remaining := n
	for i, c := range candidates {
		q := min(c.Quantity, f.maxCopies, remaining)
		counts[i] = q
		remaining -= q
	}
	for i := range candidates {
		if remaining == 0 {
			break
		}
		q := min(f.maxCopies-counts[i], remaining)
		counts[i] += q
		remaining -= q
	}

	var cards []Card
	for i, c := range candidates {
		if counts[i] == 0 {
			continue
		}
		card := Card{
			Name:      c.Name,
			Quantity:  counts[i],
			Zone:      deckimport.ZoneSide,
			TypeLine:  c.TypeLine,
			Synthetic: true,
		}
		if c.color != colorless {
			card.ColorIdentity = []string{c.color}
		}
		cards = append(cards, card)
	}
	return cards
}

// EmergencyDeck returns the fixed placeholder deck from the table.
func (f *TableFiller) EmergencyDeck() []Card {
	e := f.data.Emergency
	cards := make([]Card, 0, len(e.Main)+len(e.Side))
	build := func(list []fillerCard, zone deckimport.Zone) {
		for _, c := range list {
			cards = append(cards, Card{
				Name:          c.Name,
				Quantity:      c.Quantity,
				Zone:          zone,
				IsBasicLand:   catalog.IsBasicLandName(c.Name),
				ColorIdentity: []string{e.Color},
				TypeLine:      c.TypeLine,
				Synthetic:     true,
				Order:         len(cards),
			})
		}
	}
	build(e.Main, deckimport.ZoneMain)
	build(e.Side, deckimport.ZoneSide)
	return cards
}
