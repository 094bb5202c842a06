// Package catalogtest provides an in-memory catalog for tests.
package catalogtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/fuzzy"
)

// FuzzyThreshold is the minimum blended score LookupFuzzy accepts.
const FuzzyThreshold = 0.75

// Catalog is an in-memory catalog.Catalog. Exact lookups ignore case, as
// Scryfall's do. It is safe for concurrent use.
type Catalog struct {
	mu    sync.Mutex
	cards map[string]*catalog.CardRecord
	faces map[string]*catalog.CardRecord
	calls map[string]int

	// Err, when set, is returned from every call.
	Err error
	// Delay is slept (honoring ctx) before answering.
	Delay time.Duration
	// FailFirst makes the first N calls fail with catalog.ErrNetwork.
	FailFirst int
}

// New creates a catalog holding records.
func New(records ...*catalog.CardRecord) *Catalog {
	c := &Catalog{
		cards: make(map[string]*catalog.CardRecord),
		faces: make(map[string]*catalog.CardRecord),
		calls: make(map[string]int),
	}
	for _, r := range records {
		c.Add(r)
	}
	return c
}

// Add registers a card. Each face of a multi-face card also matches exact
// lookups and prefetches, as on Scryfall.
func (c *Catalog) Add(r *catalog.CardRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards[strings.ToLower(r.Name)] = r
	for _, face := range catalog.FaceNames(r.Name) {
		c.faces[strings.ToLower(face)] = r
	}
}

func (c *Catalog) exact(name string) (*catalog.CardRecord, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if rec, ok := c.cards[key]; ok {
		return rec, true
	}
	rec, ok := c.faces[key]
	return rec, ok
}

// Calls returns how many times op ("exact", "fuzzy", "autocomplete",
// "prefetch") was called.
func (c *Catalog) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (c *Catalog) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *Catalog) begin(ctx context.Context, op string) error {
	c.mu.Lock()
	c.calls[op]++
	failing := c.FailFirst > 0
	if failing {
		c.FailFirst--
	}
	err := c.Err
	delay := c.Delay
	c.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if failing {
		return catalog.ErrNetwork
	}
	return err
}

// LookupExact implements catalog.Catalog.
func (c *Catalog) LookupExact(ctx context.Context, name string) (*catalog.CardRecord, error) {
	if err := c.begin(ctx, "exact"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, _ := c.exact(name)
	return rec, nil
}

// LookupFuzzy implements catalog.Catalog, returning the best blended match
// at or above FuzzyThreshold.
func (c *Catalog) LookupFuzzy(ctx context.Context, name string) (*catalog.CardRecord, error) {
	if err := c.begin(ctx, "fuzzy"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *catalog.CardRecord
	bestScore := 0.0
	for _, key := range c.sortedKeys() {
		rec := c.cards[key]
		if score := fuzzy.Blend(name, rec.Name); score > bestScore {
			best, bestScore = rec, score
		}
	}
	if bestScore < FuzzyThreshold {
		return nil, nil
	}
	return best, nil
}

// Autocomplete implements catalog.Catalog: names starting with prefix,
// alphabetically, at most five.
func (c *Catalog) Autocomplete(ctx context.Context, prefix string) ([]string, error) {
	if err := c.begin(ctx, "autocomplete"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := strings.ToLower(strings.TrimSpace(prefix))
	var names []string
	for _, key := range c.sortedKeys() {
		if strings.HasPrefix(key, p) {
			names = append(names, c.cards[key].Name)
		}
		if len(names) == 5 {
			break
		}
	}
	return names, nil
}

// Prefetch implements catalog.Prefetcher.
func (c *Catalog) Prefetch(ctx context.Context, names []string) (map[string]*catalog.CardRecord, error) {
	if err := c.begin(ctx, "prefetch"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	found := make(map[string]*catalog.CardRecord)
	for _, name := range names {
		if rec, ok := c.exact(name); ok {
			found[rec.Name] = rec
		}
	}
	return found, nil
}

func (c *Catalog) sortedKeys() []string {
	keys := make([]string, 0, len(c.cards))
	for k := range c.cards {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Card builds a record for name with the given type line and color identity.
// Basic land status is derived from the name.
func Card(name, typeLine string, colors ...string) *catalog.CardRecord {
	return &catalog.CardRecord{
		Name:          name,
		TypeLine:      typeLine,
		Colors:        colors,
		ColorIdentity: colors,
		Legalities:    map[string]string{},
		IsBasicLand:   catalog.IsBasicLandName(name),
	}
}

// Standard returns a catalog with a handful of well-known cards, including
// the basic lands.
func Standard() *Catalog {
	c := New(
		Card("Lightning Bolt", "Instant", "R"),
		Card("Shock", "Instant", "R"),
		Card("Negate", "Instant", "U"),
		Card("Counterspell", "Instant", "U"),
		Card("Duress", "Sorcery", "B"),
		Card("Opt", "Instant", "U"),
		Card("Snapcaster Mage", "Creature — Human Wizard", "U"),
		Card("Swords to Plowshares", "Instant", "W"),
		Card("Llanowar Elves", "Creature — Elf Druid", "G"),
		Card("Brainstorm", "Instant", "U"),
		Card("Mana Crypt", "Artifact"),
		Card("Battlefield Forge", "Land", "R", "W"),
	)
	for _, name := range catalog.BasicLandNames[:6] {
		c.Add(Card(name, "Basic Land — "+name))
	}
	return c
}
