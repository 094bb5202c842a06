// Package deckexport renders completed decks as import text for deck-building
// clients, and as spreadsheet, JSON or CSV files.
package deckexport

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/decklist"
)

// ExportFormat represents the format to export the deck in.
type ExportFormat string

const (
	FormatArena       ExportFormat = "arena"       // MTG Arena import
	FormatMTGO        ExportFormat = "mtgo"        // MTGO, "SB:" prefixed sideboard
	FormatMTGGoldfish ExportFormat = "mtggoldfish" // MTGGoldfish
	FormatMoxfield    ExportFormat = "moxfield"    // Moxfield (4x Card Name)
	FormatPlainText   ExportFormat = "plaintext"   // Simple text list, "[SB]" prefixed sideboard
	FormatArchidekt   ExportFormat = "archidekt"   // Archidekt, comment headers
	FormatOriginal    ExportFormat = "original"    // Arena layout in discovery order
)

// formatLayout describes one text syntax.
type formatLayout struct {
	mainHeader string
	sideHeader string
	// sidePrefix marks each sideboard line instead of a header.
	sidePrefix string
	// qtySuffix follows the quantity, e.g. "x" for "4x Card".
	qtySuffix string
	// blankBeforeSide separates the zones with an empty line.
	blankBeforeSide bool
	discoveryOrder  bool
	extension       string
}

var formats = map[ExportFormat]formatLayout{
	FormatArena:       {mainHeader: "Deck", sideHeader: "Sideboard", blankBeforeSide: true, extension: "txt"},
	FormatMTGO:        {sidePrefix: "SB: ", blankBeforeSide: true, extension: "dek"},
	FormatMTGGoldfish: {sideHeader: "Sideboard", blankBeforeSide: true, extension: "txt"},
	FormatMoxfield:    {sideHeader: "Sideboard:", qtySuffix: "x", blankBeforeSide: true, extension: "txt"},
	FormatPlainText:   {sidePrefix: "[SB] ", qtySuffix: "x", extension: "txt"},
	FormatArchidekt:   {mainHeader: "// Mainboard", sideHeader: "// Sideboard", qtySuffix: "x", blankBeforeSide: true, extension: "txt"},
	FormatOriginal:    {mainHeader: "Deck", sideHeader: "Sideboard", blankBeforeSide: true, discoveryOrder: true, extension: "txt"},
}

// formatAliases maps alternative names onto the canonical formats.
var formatAliases = map[string]ExportFormat{
	"mtga":      FormatArena,
	"text":      FormatPlainText,
	"plain":     FormatPlainText,
	"goldfish":  FormatMTGGoldfish,
	"discovery": FormatOriginal,
}

// Formats lists the supported text formats in a stable order.
func Formats() []ExportFormat {
	out := make([]ExportFormat, 0, len(formats))
	for f := range formats {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// ParseFormat resolves a format name, accepting a few common aliases.
func ParseFormat(name string) (ExportFormat, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return FormatArena, nil
	}
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	if _, ok := formats[ExportFormat(key)]; ok {
		return ExportFormat(key), nil
	}
	return "", fmt.Errorf("unsupported export format: %s", name)
}

// DeckExport represents an exported deck.
type DeckExport struct {
	Content  string       // The exported deck text
	Format   ExportFormat // The format used
	Filename string       // Suggested filename for download
}

// Export renders cards in format. Cards are alphabetical within each zone
// except for FormatOriginal, which keeps discovery order. The text ends
// with exactly one newline.
func Export(cards []decklist.Card, format ExportFormat) (string, error) {
	layout, ok := formats[format]
	if !ok {
		return "", fmt.Errorf("unsupported export format: %s", format)
	}

	mainboard := orderCards(cards, deckimport.ZoneMain, layout.discoveryOrder)
	sideboard := orderCards(cards, deckimport.ZoneSide, layout.discoveryOrder)

	var sb strings.Builder

	if layout.mainHeader != "" {
		sb.WriteString(layout.mainHeader)
		sb.WriteString("\n")
	}
	for _, c := range mainboard {
		writeLine(&sb, layout, "", c)
	}

	if len(sideboard) > 0 {
		if layout.blankBeforeSide && len(mainboard) > 0 {
			sb.WriteString("\n")
		}
		if layout.sideHeader != "" {
			sb.WriteString(layout.sideHeader)
			sb.WriteString("\n")
		}
		for _, c := range sideboard {
			writeLine(&sb, layout, layout.sidePrefix, c)
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// ExportNamed renders cards and suggests a filename derived from name.
func ExportNamed(name string, cards []decklist.Card, format ExportFormat) (*DeckExport, error) {
	content, err := Export(cards, format)
	if err != nil {
		return nil, err
	}
	return &DeckExport{
		Content:  content,
		Format:   format,
		Filename: fmt.Sprintf("%s.%s", sanitizeFilename(name), formats[format].extension),
	}, nil
}

func writeLine(sb *strings.Builder, layout formatLayout, prefix string, c decklist.Card) {
	fmt.Fprintf(sb, "%s%d%s %s\n", prefix, c.Quantity, layout.qtySuffix, c.Name)
}

// orderCards returns the cards of one zone, alphabetical or in discovery order.
func orderCards(cards []decklist.Card, zone deckimport.Zone, discovery bool) []decklist.Card {
	var out []decklist.Card
	for _, c := range cards {
		if c.Zone == zone && c.Quantity > 0 {
			out = append(out, c)
		}
	}

	slices.SortStableFunc(out, func(a, b decklist.Card) int {
		if discovery && a.Order != b.Order {
			return a.Order - b.Order
		}
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// sanitizeFilename removes invalid characters from filename.
func sanitizeFilename(name string) string {
	// Replace invalid filename characters with underscore
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	// Trim spaces and limit length
	result = strings.TrimSpace(result)
	if len(result) > 100 {
		result = result[:100]
	}
	if result == "" {
		result = "deck"
	}
	return result
}
