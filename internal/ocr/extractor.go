// Package ocr is the boundary between OCR engines and the deck scanner.
//
// Engines themselves live outside this module. They hand their output over
// either directly through LineExtractor, or as a dump on disk that one of the
// extractors here reads back: a plain text file with one fragment per line,
// or a JSON array of positioned fragments.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// ErrUnsupportedSource is returned when no extractor handles a source.
var ErrUnsupportedSource = errors.New("unsupported OCR source")

// LineExtractor produces ordered text fragments for one deck image.
type LineExtractor interface {
	ExtractLines(ctx context.Context, source string) ([]deckimport.RawLine, error)
}

// ExtractorFunc adapts a function to LineExtractor.
type ExtractorFunc func(ctx context.Context, source string) ([]deckimport.RawLine, error)

// ExtractLines calls f.
func (f ExtractorFunc) ExtractLines(ctx context.Context, source string) ([]deckimport.RawLine, error) {
	return f(ctx, source)
}

// Static returns an extractor that ignores the source and yields lines.
// It is used when text arrives inline, for example in an API request.
func Static(lines []deckimport.RawLine) LineExtractor {
	return ExtractorFunc(func(ctx context.Context, _ string) ([]deckimport.RawLine, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return lines, nil
	})
}

// Extensions lists the dump file extensions ForPath accepts.
var Extensions = []string{".txt", ".text", ".json"}

// ForPath selects an extractor from the file extension.
func ForPath(path string) (LineExtractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return TextExtractor{}, nil
	case ".json":
		return JSONExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}
}

// Supported reports whether ForPath accepts path.
func Supported(path string) bool {
	_, err := ForPath(path)
	return err == nil
}
