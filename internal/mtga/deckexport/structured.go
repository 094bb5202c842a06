package deckexport

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/decklist"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
)

// ReviewThreshold is the confidence below which a resolved card is listed
// on the review sheet.
const ReviewThreshold = 0.90

// Sheet names in the spreadsheet export.
const (
	SheetMainboard = "Mainboard"
	SheetSideboard = "Sideboard"
	SheetReview    = "Review"
)

// Deck is everything a structured export needs about one scan.
type Deck struct {
	Name        string
	Cards       []decklist.Card
	Unvalidated []resolver.ResolvedEntry
	Report      decklist.Report
	Guaranteed  bool
}

var cardHeaders = []any{"Quantity", "Name", "Type", "Colors", "Set", "Confidence", "Filler"}

// ExportXLSX writes the deck as a workbook with Mainboard, Sideboard and
// Review sheets.
func ExportXLSX(w io.Writer, deck Deck) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMainboard); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetSideboard, SheetReview} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	zones := []struct {
		sheet string
		zone  deckimport.Zone
	}{
		{SheetMainboard, deckimport.ZoneMain},
		{SheetSideboard, deckimport.ZoneSide},
	}
	for _, z := range zones {
		rows := [][]any{cardHeaders}
		for _, c := range orderCards(deck.Cards, z.zone, false) {
			rows = append(rows, []any{
				c.Quantity, c.Name, c.TypeLine, strings.Join(c.ColorIdentity, ""),
				strings.ToUpper(c.SetCode), c.Confidence, c.Synthetic,
			})
		}
		if err := writeSheet(f, z.sheet, rows, headerStyle); err != nil {
			return err
		}
	}

	if err := writeSheet(f, SheetReview, reviewRows(deck), headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// reviewRows lists unresolved lines, low-confidence matches and the
// validation messages.
func reviewRows(deck Deck) [][]any {
	rows := [][]any{{"Kind", "Zone", "Quantity", "Text", "Detail"}}
	for _, e := range deck.Unvalidated {
		rows = append(rows, []any{
			"unresolved", string(e.Zone), e.Quantity, e.OriginalText,
			strings.Join(e.Suggestions, "; "),
		})
	}
	for _, zone := range []deckimport.Zone{deckimport.ZoneMain, deckimport.ZoneSide} {
		for _, c := range orderCards(deck.Cards, zone, false) {
			if c.Synthetic || c.Confidence >= ReviewThreshold {
				continue
			}
			rows = append(rows, []any{
				"low confidence", string(zone), c.Quantity, c.Name,
				strconv.FormatFloat(c.Confidence, 'f', 2, 64),
			})
		}
	}
	for _, msg := range deck.Report.Errors {
		rows = append(rows, []any{"error", "", "", msg, ""})
	}
	for _, msg := range deck.Report.Warnings {
		rows = append(rows, []any{"warning", "", "", msg, ""})
	}
	if !deck.Guaranteed {
		rows = append(rows, []any{"error", "", "", "placeholder deck, not derived from the scan", ""})
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "B", "B", 32); err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}
	return nil
}

type jsonCard struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Set      string `json:"set"`
}

type jsonDeck struct {
	Name       string     `json:"name,omitempty"`
	Main       []jsonCard `json:"main"`
	Sideboard  []jsonCard `json:"sideboard"`
	Guaranteed bool       `json:"guaranteed"`
}

// ExportJSON writes the deck as {"main": [...], "sideboard": [...]}.
func ExportJSON(w io.Writer, deck Deck) error {
	toJSON := func(zone deckimport.Zone) []jsonCard {
		out := []jsonCard{}
		for _, c := range orderCards(deck.Cards, zone, false) {
			out = append(out, jsonCard{Name: c.Name, Quantity: c.Quantity, Set: strings.ToUpper(c.SetCode)})
		}
		return out
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonDeck{
		Name:       deck.Name,
		Main:       toJSON(deckimport.ZoneMain),
		Sideboard:  toJSON(deckimport.ZoneSide),
		Guaranteed: deck.Guaranteed,
	}); err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}
	return nil
}

// ExportCSV writes one row per card with the columns section, name,
// quantity and set.
func ExportCSV(w io.Writer, deck Deck) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "name", "quantity", "set"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, zone := range []deckimport.Zone{deckimport.ZoneMain, deckimport.ZoneSide} {
		for _, c := range orderCards(deck.Cards, zone, false) {
			if err := cw.Write([]string{string(zone), c.Name, strconv.Itoa(c.Quantity), strings.ToUpper(c.SetCode)}); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Structured export formats, written by WriteStructured.
const (
	StructuredCSV  = "csv"
	StructuredJSON = "json"
	StructuredXLSX = "xlsx"
)

var structuredContentTypes = map[string]string{
	StructuredCSV:  "text/csv",
	StructuredJSON: "application/json",
	StructuredXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// StructuredFormats lists the structured export formats.
func StructuredFormats() []string {
	return []string{StructuredCSV, StructuredJSON, StructuredXLSX}
}

// IsStructured reports whether format names a structured export.
func IsStructured(format string) bool {
	_, ok := structuredContentTypes[strings.ToLower(format)]
	return ok
}

// ContentType returns the MIME type of a structured format, or "" when the
// format is not structured.
func ContentType(format string) string {
	return structuredContentTypes[strings.ToLower(format)]
}

// WriteStructured writes deck in one of the structured formats.
func WriteStructured(w io.Writer, format string, deck Deck) error {
	switch strings.ToLower(format) {
	case StructuredCSV:
		return ExportCSV(w, deck)
	case StructuredJSON:
		return ExportJSON(w, deck)
	case StructuredXLSX:
		return ExportXLSX(w, deck)
	default:
		return fmt.Errorf("unsupported structured format: %s", format)
	}
}
