package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/config"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckexport"
	"github.com/ramonehamilton/MTGA-DeckScanner/internal/pipeline"
)

var (
	scanFormat  string
	scanOutput  string
	scanXLSX    bool
	scanTargets []int
	scanNoSave  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>...",
	Short: "Scan OCR dumps into complete decks",
	Long: `Scans one or more OCR dumps (.txt or .json) and prints the completed deck
list of each. With --output the exports are written to that directory
instead, one file per dump; --xlsx adds a spreadsheet with a review sheet of
low confidence and unresolved cards.

Scans are recorded in history unless --no-save is given or the database is
disabled. A deck identical to one already recorded is not stored twice.`,
	Example: `  deckscan scan screenshot.json
  deckscan scan --format mtgo -o decks/ dumps/*.txt
  deckscan scan --targets 40,0 draft.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := applyDeckFlags(cfg, scanFormat, scanTargets); err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var (
		errs    []error
		printed int
	)
	for _, path := range args {
		result, err := a.scanFile(ctx, path, !scanNoSave)
		if err != nil {
			logger.Error("Scan failed", "source", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		if scanOutput == "" {
			if printed > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			fmt.Fprint(cmd.OutOrStdout(), result.ExportText)
			printed++
		} else if err := writeExport(scanOutput, result); err != nil {
			errs = append(errs, err)
			continue
		}

		if scanXLSX {
			if err := writeWorkbook(outputDir(scanOutput), result); err != nil {
				errs = append(errs, err)
			}
		}
	}

	stats := a.metrics.GetStats()
	logger.Info("Finished scanning",
		"files", len(args),
		"decks", stats.Scans,
		"guaranteed", stats.Guaranteed,
		"resolution_rate", stats.ResolutionRate,
		"p95_ms", stats.ScanLatency.P95)

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d scans failed: %w", len(errs), len(args), errors.Join(errs...))
	}
	return nil
}

// applyDeckFlags overrides the deck settings of c with command flags.
func applyDeckFlags(c *config.Config, format string, targets []int) error {
	if format != "" {
		f, err := deckexport.ParseFormat(format)
		if err != nil {
			return err
		}
		c.Deck.ExportFormat = string(f)
	}
	switch len(targets) {
	case 0:
	case 2:
		c.Deck.TargetMain, c.Deck.TargetSide = targets[0], targets[1]
	default:
		return fmt.Errorf("--targets needs a main and a side size, got %d values", len(targets))
	}
	return c.Validate()
}

// deckName derives a deck name from the OCR dump path.
func deckName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func outputDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// writeExport writes the export text of result into dir.
func writeExport(dir string, result *pipeline.DeckResult) error {
	format, err := deckexport.ParseFormat(result.Format)
	if err != nil {
		return err
	}
	export, err := deckexport.ExportNamed(deckName(result.Source), result.Cards(), format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, export.Filename)
	if err := os.WriteFile(path, []byte(export.Content), 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	logger.Info("Wrote deck", "path", path)
	return nil
}

// writeWorkbook writes the spreadsheet export of result into dir.
func writeWorkbook(dir string, result *pipeline.DeckResult) error {
	name := deckName(result.Source)
	deck := deckexport.Deck{
		Name:        name,
		Cards:       result.Cards(),
		Unvalidated: result.Unvalidated,
		Report:      result.Validation,
		Guaranteed:  result.Guaranteed,
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name+"."+deckexport.StructuredXLSX)
	return writeFile(path, func(w io.Writer) error {
		return deckexport.ExportXLSX(w, deck)
	})
}

// writeFile creates path and fills it with write.
func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Info("Wrote deck", "path", path)
	return nil
}
