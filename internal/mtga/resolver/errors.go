package resolver

import (
	"context"
	"errors"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
)

var (
	// ErrResolution means no confident catalog match was found.
	ErrResolution = errors.New("no confident catalog match")
	// ErrNetwork is the catalog's transport failure, retried before demotion
	// to ErrResolution.
	ErrNetwork = catalog.ErrNetwork
	// ErrTimeout means the resolution deadline passed before a match was found.
	ErrTimeout = errors.New("resolution deadline exceeded")
)

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
