package ocr

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// TextExtractor reads a plain text dump, one fragment per line. Blank lines
// are skipped; fragments carry no position or zone hint.
type TextExtractor struct{}

// ExtractLines reads the file at source.
func (TextExtractor) ExtractLines(ctx context.Context, source string) ([]deckimport.RawLine, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open text dump: %w", err)
	}
	defer f.Close()

	return ReadText(ctx, f)
}

// ReadText splits r into fragments.
func ReadText(ctx context.Context, r io.Reader) ([]deckimport.RawLine, error) {
	var lines []deckimport.RawLine
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := scanner.Text()
		if first {
			text = strings.TrimPrefix(text, "\ufeff")
			first = false
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		lines = append(lines, deckimport.RawLine{Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text dump: %w", err)
	}
	return lines, nil
}
