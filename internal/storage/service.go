package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/storage/repository"
)

var (
	// ErrScanNotFound is returned when no stored scan matches an ID.
	ErrScanNotFound = errors.New("scan not found")
	// ErrAmbiguousID is returned when a short ID matches several scans.
	ErrAmbiguousID = errors.New("scan ID prefix is ambiguous")
)

// Service provides high-level operations over the scanner database.
type Service struct {
	db    *DB
	scans repository.ScanRepository
	cache *CatalogCache
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:    db,
		scans: repository.NewScanRepository(db.Conn()),
		cache: NewCatalogCache(db),
	}
}

// CatalogCache returns the persistent catalog cache tier.
func (s *Service) CatalogCache() *CatalogCache {
	return s.cache
}

// StoreScan stores a scan with its cards in one transaction.
func (s *Service) StoreScan(ctx context.Context, scan *Scan) error {
	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if err := repository.NewScanRepository(tx).Create(ctx, scan); err != nil {
			return fmt.Errorf("failed to store scan %s: %w", scan.ID, err)
		}
		return nil
	})
}

// GetScan retrieves a scan with its cards, or nil when it does not exist.
func (s *Service) GetScan(ctx context.Context, id string) (*Scan, error) {
	return s.scans.GetByID(ctx, id)
}

// ListScans retrieves scans newest first. Cards are not loaded.
func (s *Service) ListScans(ctx context.Context, filter ScanFilter) ([]*Scan, error) {
	return s.scans.List(ctx, filter)
}

// FindByFingerprint returns the newest scan of an identical deck, or nil.
func (s *Service) FindByFingerprint(ctx context.Context, fingerprint string) (*Scan, error) {
	scans, err := s.scans.List(ctx, ScanFilter{Fingerprint: fingerprint, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, nil
	}
	return s.scans.GetByID(ctx, scans[0].ID)
}

// ResolveScanID expands a full or short scan ID. It returns ErrScanNotFound
// when nothing matches and ErrAmbiguousID when the prefix is not unique.
func (s *Service) ResolveScanID(ctx context.Context, idOrPrefix string) (string, error) {
	if idOrPrefix == "" {
		return "", ErrScanNotFound
	}
	scans, err := s.scans.List(ctx, ScanFilter{IDPrefix: idOrPrefix, Limit: 2})
	if err != nil {
		return "", err
	}
	switch len(scans) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrScanNotFound, idOrPrefix)
	case 1:
		return scans[0].ID, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, idOrPrefix)
	}
}

// DeleteScan deletes a scan and its cards.
func (s *Service) DeleteScan(ctx context.Context, id string) error {
	return s.scans.Delete(ctx, id)
}

// Close closes the database connection.
func (s *Service) Close() error {
	return s.db.Close()
}
