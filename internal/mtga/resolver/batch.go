package resolver

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// ResolveBatch resolves entries concurrently and returns results in input
// order. Entries sharing a candidate name are resolved once. Names are
// processed in batches of Options.BatchSize with Options.BatchDelay between
// batches. When the deadline passes, unfinished entries come back
// unresolved with ErrTimeout; the batch itself never fails.
func (s *Session) ResolveBatch(ctx context.Context, entries []deckimport.ParsedEntry) []ResolvedEntry {
	if len(entries) == 0 {
		return []ResolvedEntry{}
	}

	if s.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Deadline)
		defer cancel()
	}

	// Deduplicate by normalized candidate name, keeping first-seen order.
	var names []string
	index := make(map[string]int)
	for _, e := range entries {
		key := normalizeKey(e.CandidateName)
		if _, ok := index[key]; !ok {
			index[key] = len(names)
			names = append(names, e.CandidateName)
		}
	}

	start := time.Now()
	if _, err := s.cache.Prefetch(ctx, names); err != nil {
		s.logger.Warn("Catalog prefetch failed, resolving individually", "error", err)
	}

	resolved := make([]ResolvedEntry, len(names))
	for lo := 0; lo < len(names); lo += s.opts.BatchSize {
		hi := min(lo+s.opts.BatchSize, len(names))

		if lo > 0 && s.opts.BatchDelay > 0 {
			t := time.NewTimer(s.opts.BatchDelay)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}

		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				resolved[i] = s.Resolve(ctx, names[i], deckimport.ZoneMain)
				return nil
			})
		}
		_ = g.Wait()
	}

	results := make([]ResolvedEntry, len(entries))
	unresolved := 0
	for i, e := range entries {
		r := resolved[index[normalizeKey(e.CandidateName)]]
		r.ParsedEntry = e
		r.Suggestions = append([]string(nil), r.Suggestions...)
		results[i] = r
		if !r.Resolved {
			unresolved++
		}
	}

	s.logger.Info("Resolved card batch",
		"entries", len(entries),
		"unique", len(names),
		"unresolved", unresolved,
		"duration", time.Since(start))

	return results
}

func normalizeKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
