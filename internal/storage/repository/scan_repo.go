// Package repository contains the SQL behind the storage service.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/storage/models"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ScanRepository handles database operations for scans.
type ScanRepository interface {
	// Create inserts a scan with its cards and unresolved lines.
	Create(ctx context.Context, scan *models.Scan) error

	// GetByID retrieves a scan with its cards. It returns nil when no scan matches.
	GetByID(ctx context.Context, id string) (*models.Scan, error)

	// List retrieves scans, newest first, without their cards.
	List(ctx context.Context, filter models.ScanFilter) ([]*models.Scan, error)

	// GetCards retrieves the cards of a scan in board then position order.
	GetCards(ctx context.Context, scanID string) ([]*models.ScanCard, error)

	// GetUnresolved retrieves the unresolved lines of a scan.
	GetUnresolved(ctx context.Context, scanID string) ([]*models.UnresolvedLine, error)

	// Delete deletes a scan; its cards go with it.
	Delete(ctx context.Context, id string) error
}

type scanRepository struct {
	db Querier
}

// NewScanRepository creates a new scan repository.
func NewScanRepository(db Querier) ScanRepository {
	return &scanRepository{db: db}
}

// Create inserts a scan with its cards and unresolved lines. Run it inside
// a transaction to keep the rows together.
func (r *scanRepository) Create(ctx context.Context, scan *models.Scan) error {
	warnings, err := marshalStrings(scan.Warnings)
	if err != nil {
		return err
	}
	errs, err := marshalStrings(scan.Errors)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scans (
			id, source, format, state, guaranteed, fingerprint,
			main_count, side_count, export_text, warnings, errors, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		scan.ID,
		scan.Source,
		scan.Format,
		scan.State,
		scan.Guaranteed,
		scan.Fingerprint,
		scan.MainCount,
		scan.SideCount,
		scan.ExportText,
		warnings,
		errs,
		scan.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}

	for _, card := range scan.Cards {
		card.ScanID = scan.ID
		if err := r.addCard(ctx, card); err != nil {
			return err
		}
	}
	for _, line := range scan.Unresolved {
		line.ScanID = scan.ID
		if err := r.addUnresolved(ctx, line); err != nil {
			return err
		}
	}

	return nil
}

func (r *scanRepository) addCard(ctx context.Context, card *models.ScanCard) error {
	query := `
		INSERT INTO scan_cards (
			scan_id, name, quantity, board, confidence, synthetic, basic_land, set_code, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		card.ScanID,
		card.Name,
		card.Quantity,
		card.Board,
		card.Confidence,
		card.Synthetic,
		card.BasicLand,
		card.SetCode,
		card.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to add card %s to scan: %w", card.Name, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		card.ID = int(id)
	}
	return nil
}

func (r *scanRepository) addUnresolved(ctx context.Context, line *models.UnresolvedLine) error {
	suggestions, err := marshalStrings(line.Suggestions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scan_unresolved (
			scan_id, original_text, candidate_name, quantity, board, suggestions, position
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		line.ScanID,
		line.OriginalText,
		line.CandidateName,
		line.Quantity,
		line.Board,
		suggestions,
		line.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to add unresolved line to scan: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		line.ID = int(id)
	}
	return nil
}

const scanColumns = `
	id, source, format, state, guaranteed, fingerprint,
	main_count, side_count, export_text, warnings, errors, created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScan(row rowScanner) (*models.Scan, error) {
	scan := &models.Scan{}
	var warnings, errs string
	err := row.Scan(
		&scan.ID,
		&scan.Source,
		&scan.Format,
		&scan.State,
		&scan.Guaranteed,
		&scan.Fingerprint,
		&scan.MainCount,
		&scan.SideCount,
		&scan.ExportText,
		&warnings,
		&errs,
		&scan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if scan.Warnings, err = unmarshalStrings(warnings); err != nil {
		return nil, err
	}
	if scan.Errors, err = unmarshalStrings(errs); err != nil {
		return nil, err
	}
	return scan, nil
}

// GetByID retrieves a scan by its ID.
func (r *scanRepository) GetByID(ctx context.Context, id string) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = ?`

	scan, err := scanScan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan by id: %w", err)
	}

	if scan.Cards, err = r.GetCards(ctx, id); err != nil {
		return nil, err
	}
	if scan.Unresolved, err = r.GetUnresolved(ctx, id); err != nil {
		return nil, err
	}
	return scan, nil
}

// List retrieves scans matching filter, newest first.
func (r *scanRepository) List(ctx context.Context, filter models.ScanFilter) ([]*models.Scan, error) {
	var (
		where []string
		args  []any
	)
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Guaranteed != nil {
		where = append(where, "guaranteed = ?")
		args = append(args, *filter.Guaranteed)
	}
	if filter.Fingerprint != "" {
		where = append(where, "fingerprint = ?")
		args = append(args, filter.Fingerprint)
	}
	if filter.IDPrefix != "" {
		where = append(where, "substr(id, 1, ?) = ?")
		args = append(args, len(filter.IDPrefix), filter.IDPrefix)
	}

	query := `SELECT ` + scanColumns + ` FROM scans`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*models.Scan
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, scan)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %w", err)
	}

	return scans, nil
}

// GetCards retrieves all cards of a scan.
func (r *scanRepository) GetCards(ctx context.Context, scanID string) ([]*models.ScanCard, error) {
	query := `
		SELECT id, scan_id, name, quantity, board, confidence, synthetic, basic_land, set_code, position
		FROM scan_cards
		WHERE scan_id = ?
		ORDER BY board = 'sideboard', position, name
	`

	rows, err := r.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.ScanCard
	for rows.Next() {
		card := &models.ScanCard{}
		err := rows.Scan(
			&card.ID,
			&card.ScanID,
			&card.Name,
			&card.Quantity,
			&card.Board,
			&card.Confidence,
			&card.Synthetic,
			&card.BasicLand,
			&card.SetCode,
			&card.Position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan cards: %w", err)
	}

	return cards, nil
}

// GetUnresolved retrieves the unresolved lines of a scan.
func (r *scanRepository) GetUnresolved(ctx context.Context, scanID string) ([]*models.UnresolvedLine, error) {
	query := `
		SELECT id, scan_id, original_text, candidate_name, quantity, board, suggestions, position
		FROM scan_unresolved
		WHERE scan_id = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unresolved lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.UnresolvedLine
	for rows.Next() {
		line := &models.UnresolvedLine{}
		var suggestions string
		err := rows.Scan(
			&line.ID,
			&line.ScanID,
			&line.OriginalText,
			&line.CandidateName,
			&line.Quantity,
			&line.Board,
			&suggestions,
			&line.Position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unresolved line: %w", err)
		}
		if line.Suggestions, err = unmarshalStrings(suggestions); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unresolved lines: %w", err)
	}

	return lines, nil
}

// Delete deletes a scan by its ID.
func (r *scanRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM scans WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}

	return nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	values := []string{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return values, nil
}
