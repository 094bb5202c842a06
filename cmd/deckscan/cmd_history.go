package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckexport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/storage"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/timerange"
)

var (
	historyLimit      int
	historyGuaranteed bool
	historySince      string

	exportFormat string
	exportOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scans, newest first",
	Example: `  deckscan history --since today
  deckscan history --since 7d --guaranteed`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var exportCmd = &cobra.Command{
	Use:   "export <scan-id>",
	Short: "Export a recorded scan",
	Long: `Exports a scan from history. The ID may be shortened to the prefix shown by
"deckscan history" as long as it is unique.

Text formats are arena, mtgo, mtggoldfish, moxfield, plaintext, archidekt and
original; csv, json and xlsx produce structured exports.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := requireStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	filter := storage.ScanFilter{Limit: historyLimit}
	if historyGuaranteed {
		guaranteed := true
		filter.Guaranteed = &guaranteed
	}
	if historySince != "" {
		since, err := timerange.ParseSince(historySince, time.Now())
		if err != nil {
			return err
		}
		filter.Since = &since
	}
	scans, err := store.ListScans(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(scans) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No scans recorded yet."))
		return nil
	}

	t := newTable("ID", "SCANNED", "STATE", "MAIN", "SIDE", "FORMAT", "SOURCE")
	for _, s := range scans {
		state := s.State
		if !s.Guaranteed {
			state += "*"
		}
		t.addRow(
			storage.ShortID(s.ID),
			s.CreatedAt.Local().Format(time.DateTime),
			state,
			strconv.Itoa(s.MainCount),
			strconv.Itoa(s.SideCount),
			s.Format,
			s.Source,
		)
	}
	fmt.Fprint(out, t.String())
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := requireStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	id, err := store.ResolveScanID(ctx, args[0])
	if err != nil {
		return err
	}
	scan, err := store.GetScan(ctx, id)
	if err != nil {
		return err
	}
	if scan == nil {
		return fmt.Errorf("%w: %s", storage.ErrScanNotFound, id)
	}

	content, err := renderScan(scan, exportFormat)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		if exportFormat == deckexport.StructuredXLSX {
			return fmt.Errorf("xlsx exports need --output")
		}
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}
	return writeFile(exportOutput, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}

// renderScan exports a stored scan in format, defaulting to the format it
// was scanned with.
func renderScan(scan *storage.Scan, format string) ([]byte, error) {
	cards := storage.DeckCards(scan)
	name := "deck-" + storage.ShortID(scan.ID)

	if deckexport.IsStructured(format) {
		var buf bytes.Buffer
		err := deckexport.WriteStructured(&buf, format, deckexport.Deck{
			Name:        name,
			Cards:       cards,
			Unvalidated: storage.UnresolvedEntries(scan),
			Report:      storage.Report(scan),
			Guaranteed:  scan.Guaranteed,
		})
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	if format == "" {
		format = scan.Format
	}
	textFormat, err := deckexport.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	text, err := deckexport.Export(cards, textFormat)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

