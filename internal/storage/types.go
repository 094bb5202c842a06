package storage

// Re-export types from models package so callers need only one import.
import "github.com/ramonehamilton/MTGA-DeckScanner/internal/storage/models"

type (
	Scan           = models.Scan
	ScanCard       = models.ScanCard
	UnresolvedLine = models.UnresolvedLine
	ScanFilter     = models.ScanFilter
)
