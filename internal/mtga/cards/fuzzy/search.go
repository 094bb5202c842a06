package fuzzy

import (
	"slices"
)

// Match is a candidate name ranked against an OCR reading.
type Match struct {
	Name  string
	Score float64
	// Index is the candidate's position in the input.
	Index int
}

// Rank scores candidates against query with Blend and returns them best
// first, keeping input order among equal scores. Candidates below minScore
// are dropped; limit <= 0 keeps all of them.
func Rank(query string, candidates []string, minScore float64, limit int) []Match {
	matches := make([]Match, 0, len(candidates))
	for i, name := range candidates {
		if score := Blend(query, name); score >= minScore {
			matches = append(matches, Match{Name: name, Score: score, Index: i})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Names returns the names of matches in order.
func Names(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Name
	}
	return out
}
