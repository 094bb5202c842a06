package deckexport

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/decklist"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/resolver"
)

func createTestCards() []decklist.Card {
	return []decklist.Card{
		{Name: "Shock", Quantity: 3, Zone: deckimport.ZoneMain, Confidence: 1, Order: 1, SetCode: "m21"},
		{Name: "Mountain", Quantity: 20, Zone: deckimport.ZoneMain, Confidence: 1, IsBasicLand: true, Order: 2},
		{Name: "Lightning Bolt", Quantity: 4, Zone: deckimport.ZoneMain, Confidence: 0.8, Order: 0, SetCode: "2xm"},
		{Name: "Duress", Quantity: 2, Zone: deckimport.ZoneSide, Confidence: 1, Order: 4},
		{Name: "Abrade", Quantity: 1, Zone: deckimport.ZoneSide, Confidence: 1, Order: 3},
	}
}

func TestExport_Formats(t *testing.T) {
	tests := []struct {
		format ExportFormat
		want   string
	}{
		{FormatArena, "Deck\n4 Lightning Bolt\n20 Mountain\n3 Shock\n\nSideboard\n1 Abrade\n2 Duress\n"},
		{FormatMTGO, "4 Lightning Bolt\n20 Mountain\n3 Shock\n\nSB: 1 Abrade\nSB: 2 Duress\n"},
		{FormatMTGGoldfish, "4 Lightning Bolt\n20 Mountain\n3 Shock\n\nSideboard\n1 Abrade\n2 Duress\n"},
		{FormatMoxfield, "4x Lightning Bolt\n20x Mountain\n3x Shock\n\nSideboard:\n1x Abrade\n2x Duress\n"},
		{FormatPlainText, "4x Lightning Bolt\n20x Mountain\n3x Shock\n[SB] 1x Abrade\n[SB] 2x Duress\n"},
		{FormatArchidekt, "// Mainboard\n4x Lightning Bolt\n20x Mountain\n3x Shock\n\n// Sideboard\n1x Abrade\n2x Duress\n"},
		{FormatOriginal, "Deck\n4 Lightning Bolt\n3 Shock\n20 Mountain\n\nSideboard\n1 Abrade\n2 Duress\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got, err := Export(createTestCards(), tt.format)
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Export(%s) =\n%q\nwant\n%q", tt.format, got, tt.want)
			}
		})
	}
}

func TestExport_NoSideboard(t *testing.T) {
	cards := []decklist.Card{{Name: "Island", Quantity: 60, Zone: deckimport.ZoneMain}}

	got, err := Export(cards, FormatArena)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if got != "Deck\n60 Island\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestExport_SkipsEmptyCards(t *testing.T) {
	cards := []decklist.Card{
		{Name: "Island", Quantity: 60, Zone: deckimport.ZoneMain},
		{Name: "Opt", Quantity: 0, Zone: deckimport.ZoneMain},
	}

	got, _ := Export(cards, FormatMTGO)
	if strings.Contains(got, "Opt") {
		t.Errorf("zero-quantity card exported: %q", got)
	}
}

func TestExport_EndsWithSingleNewline(t *testing.T) {
	for _, f := range Formats() {
		got, err := Export(createTestCards(), f)
		if err != nil {
			t.Fatalf("Export(%s) failed: %v", f, err)
		}
		if !strings.HasSuffix(got, "\n") || strings.HasSuffix(got, "\n\n") {
			t.Errorf("Export(%s) should end with exactly one newline: %q", f, got)
		}
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	if _, err := Export(createTestCards(), "invalid"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"", FormatArena, false},
		{"Arena", FormatArena, false},
		{"mtga", FormatArena, false},
		{" MOXFIELD ", FormatMoxfield, false},
		{"text", FormatPlainText, false},
		{"original", FormatOriginal, false},
		{"cockatrice", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	got := Formats()
	if len(got) != 7 {
		t.Fatalf("Formats() returned %d formats, want 7", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Errorf("Formats() not sorted: %v", got)
		}
	}
}

func TestExportNamed(t *testing.T) {
	tests := []struct {
		name     string
		format   ExportFormat
		filename string
	}{
		{"Mono Red", FormatArena, "Mono Red.txt"},
		{"Red/Blue: Tempo", FormatMTGO, "Red_Blue_ Tempo.dek"},
		{"   ", FormatPlainText, "deck.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result, err := ExportNamed(tt.name, createTestCards(), tt.format)
			if err != nil {
				t.Fatalf("ExportNamed failed: %v", err)
			}
			if result.Filename != tt.filename {
				t.Errorf("Filename = %q, want %q", result.Filename, tt.filename)
			}
			if result.Format != tt.format {
				t.Errorf("Format = %v, want %v", result.Format, tt.format)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	long := strings.Repeat("a", 150)
	if got := sanitizeFilename(long); len(got) != 100 {
		t.Errorf("sanitizeFilename should cap length at 100, got %d", len(got))
	}
	if got := sanitizeFilename(`a<b>c|d`); got != "a_b_c_d" {
		t.Errorf("sanitizeFilename = %q", got)
	}
}

func testDeck() Deck {
	return Deck{
		Name:  "Burn",
		Cards: createTestCards(),
		Unvalidated: []resolver.ResolvedEntry{{
			ParsedEntry: deckimport.ParsedEntry{Quantity: 2, CandidateName: "Lava Spik", Zone: deckimport.ZoneMain, OriginalText: "2 Lava Spik"},
			Suggestions: []string{"Lava Spike"},
		}},
		Report:     decklist.Report{IsValid: true, Warnings: []string{"added 3 basic lands"}},
		Guaranteed: true,
	}
}

func TestExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportXLSX(&buf, testDeck()); err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetMainboard, SheetSideboard, SheetReview}
	if strings.Join(sheets, ",") != strings.Join(want, ",") {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}

	main, err := f.GetRows(SheetMainboard)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(main) != 4 {
		t.Fatalf("mainboard rows = %d, want header + 3", len(main))
	}
	if main[1][0] != "4" || main[1][1] != "Lightning Bolt" || main[1][4] != "2XM" {
		t.Errorf("first mainboard row = %v", main[1])
	}

	review, err := f.GetRows(SheetReview)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	var kinds []string
	for _, row := range review[1:] {
		kinds = append(kinds, row[0])
	}
	if strings.Join(kinds, ",") != "unresolved,low confidence,warning" {
		t.Errorf("review kinds = %v", kinds)
	}
	if review[1][4] != "Lava Spike" {
		t.Errorf("suggestions cell = %q", review[1][4])
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, testDeck()); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var got struct {
		Name string `json:"name"`
		Main []struct {
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
			Set      string `json:"set"`
		} `json:"main"`
		Sideboard  []json.RawMessage `json:"sideboard"`
		Guaranteed bool              `json:"guaranteed"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Name != "Burn" || !got.Guaranteed {
		t.Errorf("unexpected header fields: %+v", got)
	}
	if len(got.Main) != 3 || got.Main[0].Name != "Lightning Bolt" || got.Main[0].Set != "2XM" {
		t.Errorf("unexpected mainboard: %+v", got.Main)
	}
	if len(got.Sideboard) != 2 {
		t.Errorf("sideboard entries = %d, want 2", len(got.Sideboard))
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, testDeck()); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	want := "section,name,quantity,set\n" +
		"main,Lightning Bolt,4,2XM\n" +
		"main,Mountain,20,\n" +
		"main,Shock,3,M21\n" +
		"sideboard,Abrade,1,\n" +
		"sideboard,Duress,2,\n"
	if buf.String() != want {
		t.Errorf("ExportCSV =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteStructured(t *testing.T) {
	deck := Deck{Name: "test", Cards: createTestCards()}

	for _, format := range StructuredFormats() {
		if !IsStructured(format) {
			t.Errorf("IsStructured(%q) = false", format)
		}
		if ContentType(format) == "" {
			t.Errorf("ContentType(%q) is empty", format)
		}

		var buf bytes.Buffer
		if err := WriteStructured(&buf, format, deck); err != nil {
			t.Errorf("WriteStructured(%q) failed: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("WriteStructured(%q) wrote nothing", format)
		}
	}

	if IsStructured("arena") {
		t.Error("arena is a text format")
	}
	if err := WriteStructured(&bytes.Buffer{}, "pdf", deck); err == nil {
		t.Error("expected error for pdf")
	}
}
