package decklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

func TestDefaultFiller_EmergencyDeckIsComplete(t *testing.T) {
	deck := DefaultFiller().EmergencyDeck()

	assert.Equal(t, 60, countZone(deck, deckimport.ZoneMain))
	assert.Equal(t, 15, countZone(deck, deckimport.ZoneSide))
	for _, c := range deck {
		assert.True(t, c.Synthetic)
		if !c.IsBasicLand {
			assert.LessOrEqual(t, c.Quantity, 4, c.Name)
		}
	}
}

func TestTableFiller_BasicLandsProportional(t *testing.T) {
	tests := []struct {
		name   string
		colors []ColorWeight
		n      int
		want   map[string]int
	}{
		{
			name:   "single color",
			colors: []ColorWeight{{"R", 4}},
			n:      28,
			want:   map[string]int{"Mountain": 28},
		},
		{
			name:   "weighted with remainder to earliest color",
			colors: []ColorWeight{{"W", 3}, {"U", 1}},
			n:      10,
			want:   map[string]int{"Plains": 8, "Island": 2},
		},
		{
			name:   "zero weights split evenly",
			colors: []ColorWeight{{"B", 0}, {"G", 0}, {"U", 0}},
			n:      5,
			want:   map[string]int{"Swamp": 2, "Forest": 2, "Island": 1},
		},
		{
			name:   "nothing to add",
			colors: []ColorWeight{{"G", 1}},
			n:      0,
			want:   map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lands := DefaultFiller().BasicLands(tt.colors, tt.n)

			assert.Equal(t, tt.want, quantities(lands))
			for _, l := range lands {
				assert.True(t, l.IsBasicLand)
				assert.True(t, l.Synthetic)
				assert.Equal(t, deckimport.ZoneMain, l.Zone)
			}
		})
	}
}

func TestTableFiller_SideboardStaples(t *testing.T) {
	f := DefaultFiller()

	got := f.SideboardStaples([]ColorWeight{{"B", 5}}, 7, []string{"duress"})

	assert.Equal(t, map[string]int{"Fatal Push": 2, "Grafdigger's Cage": 2, "Pithing Needle": 2, "Tormod's Crypt": 1}, quantities(got))
	for _, c := range got {
		assert.Equal(t, deckimport.ZoneSide, c.Zone)
	}
	push := got[0]
	assert.Equal(t, []string{"B"}, push.ColorIdentity)
	assert.Empty(t, got[1].ColorIdentity)
}

func TestTableFiller_SideboardStaplesTopUp(t *testing.T) {
	f := DefaultFiller()

	got := f.SideboardStaples(nil, 20, nil)

	total := 0
	for _, c := range got {
		total += c.Quantity
		assert.LessOrEqual(t, c.Quantity, 4, c.Name)
	}
	assert.Equal(t, 20, total)

	limited := f.WithMaxCopies(1).SideboardStaples(nil, 20, nil)
	assert.Len(t, limited, 6)
	for _, c := range limited {
		assert.Equal(t, 1, c.Quantity, c.Name)
	}
}

func TestLoadFiller_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "basic_lands: [unterminated"},
		{"missing land", "basic_lands: {W: Plains}\nemergency: {main: [{name: Opt, quantity: 4}]}"},
		{"empty emergency", "basic_lands: {W: Plains, U: Island, B: Swamp, R: Mountain, G: Forest}"},
		{"bad quantity", "basic_lands: {W: Plains, U: Island, B: Swamp, R: Mountain, G: Forest}\nemergency: {main: [{name: Opt, quantity: 0}]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFiller([]byte(tt.data))
			require.Error(t, err)
		})
	}
}
