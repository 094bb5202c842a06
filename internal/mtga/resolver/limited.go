package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
)

// RetryPolicy bounds retries of a single catalog call on network failure.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Backoff is the wait before the second try; it doubles afterwards.
	Backoff time.Duration
}

// DefaultRetryPolicy retries once after 250ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Backoff: 250 * time.Millisecond}
}

// limitedCatalog gates every outbound catalog call through the session's
// burst limiter and retry policy. It sits below the cache so hits never
// consume a token.
type limitedCatalog struct {
	next    catalog.Catalog
	limiter *rate.Limiter
	retry   RetryPolicy
	logger  *slog.Logger
}

// limitedPrefetcher is a limitedCatalog whose inner catalog supports batch
// prefetching.
type limitedPrefetcher struct {
	*limitedCatalog
	prefetcher catalog.Prefetcher
}

func newLimitedCatalog(next catalog.Catalog, limiter *rate.Limiter, retry RetryPolicy, logger *slog.Logger) catalog.Catalog {
	lc := &limitedCatalog{next: next, limiter: limiter, retry: retry, logger: logger}
	if p, ok := next.(catalog.Prefetcher); ok {
		return &limitedPrefetcher{limitedCatalog: lc, prefetcher: p}
	}
	return lc
}

func (l *limitedCatalog) LookupExact(ctx context.Context, name string) (*catalog.CardRecord, error) {
	var rec *catalog.CardRecord
	err := l.do(ctx, "exact", func() error {
		var err error
		rec, err = l.next.LookupExact(ctx, name)
		return err
	})
	return rec, err
}

func (l *limitedCatalog) LookupFuzzy(ctx context.Context, name string) (*catalog.CardRecord, error) {
	var rec *catalog.CardRecord
	err := l.do(ctx, "fuzzy", func() error {
		var err error
		rec, err = l.next.LookupFuzzy(ctx, name)
		return err
	})
	return rec, err
}

func (l *limitedCatalog) Autocomplete(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := l.do(ctx, "autocomplete", func() error {
		var err error
		names, err = l.next.Autocomplete(ctx, prefix)
		return err
	})
	return names, err
}

func (l *limitedPrefetcher) Prefetch(ctx context.Context, names []string) (map[string]*catalog.CardRecord, error) {
	var found map[string]*catalog.CardRecord
	err := l.do(ctx, "prefetch", func() error {
		var err error
		found, err = l.prefetcher.Prefetch(ctx, names)
		return err
	})
	return found, err
}

// do runs call under the limiter, retrying only network failures per the
// policy. Other errors are returned after the first attempt.
func (l *limitedCatalog) do(ctx context.Context, op string, call func() error) error {
	attempts := max(l.retry.MaxAttempts, 1)
	backoff := l.retry.Backoff

	var err error
	attempt := 1
	for ; attempt <= attempts; attempt++ {
		if werr := l.limiter.Wait(ctx); werr != nil {
			return fmt.Errorf("%w: %w", ErrTimeout, werr)
		}

		err = call()
		if err == nil {
			return nil
		}
		if isContextErr(err) || ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		if !errors.Is(err, ErrNetwork) || attempt == attempts {
			break
		}

		l.logger.Warn("Catalog call failed, retrying", "op", op, "attempt", attempt, "error", err)
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		case <-t.C:
		}
		backoff *= 2
	}
	return fmt.Errorf("%s failed after %d attempt(s): %w", op, attempt, err)
}
