package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// Fragment is the JSON form of one OCR fragment. X and Y are fractions of
// the image size unless the enclosing Document gives pixel dimensions.
type Fragment struct {
	Text       string   `json:"text"`
	ZoneHint   string   `json:"zone_hint,omitempty"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// Document is the object form of a JSON dump. A bare array of fragments
// is accepted as well.
type Document struct {
	Width  float64    `json:"width,omitempty"`
	Height float64    `json:"height,omitempty"`
	Lines  []Fragment `json:"lines"`
}

// JSONExtractor reads a JSON dump of positioned fragments.
type JSONExtractor struct{}

// ExtractLines reads the file at source.
func (JSONExtractor) ExtractLines(ctx context.Context, source string) ([]deckimport.RawLine, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON dump: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DecodeLines(bytes.NewReader(data))
}

// DecodeLines decodes either a Document or a bare fragment array.
func DecodeLines(r io.Reader) ([]deckimport.RawLine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragments: %w", err)
	}

	var doc Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &doc.Lines)
	} else {
		err = json.Unmarshal(trimmed, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode fragments: %w", err)
	}

	return doc.RawLines()
}

// RawLines converts the document fragments, normalizing pixel positions.
// Fragments with empty text are skipped.
func (d Document) RawLines() ([]deckimport.RawLine, error) {
	lines := make([]deckimport.RawLine, 0, len(d.Lines))
	for i, f := range d.Lines {
		if f.Text == "" {
			continue
		}
		line := deckimport.RawLine{
			Text:       f.Text,
			ZoneHint:   deckimport.ParseZoneHint(f.ZoneHint),
			Confidence: f.Confidence,
		}
		if f.X != nil || f.Y != nil {
			p := &deckimport.Point{}
			if f.X != nil {
				p.X = scale(*f.X, d.Width)
			}
			if f.Y != nil {
				p.Y = scale(*f.Y, d.Height)
			}
			if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
				return nil, fmt.Errorf("fragment %d: position (%.3f, %.3f) outside the image", i, p.X, p.Y)
			}
			line.Position = p
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func scale(v, size float64) float64 {
	if size > 0 {
		return v / size
	}
	return v
}
