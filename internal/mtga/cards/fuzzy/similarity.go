package fuzzy

import (
	"sort"
	"strings"
	"unicode"
)

// Weights of the blended confidence score.
const (
	ratioWeight     = 0.30
	partialWeight   = 0.20
	tokenSortWeight = 0.25
	tokenSetWeight  = 0.25

	closeLengthBonus = 0.10 // length difference <= 2
	nearLengthBonus  = 0.05 // length difference <= 5
)

// Ratio is the normalized indel similarity of a and b in [0,1]:
// 2*LCS / (len(a)+len(b)).
func Ratio(a, b string) float64 {
	return runeRatio([]rune(a), []rune(b))
}

func runeRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return float64(2*lcsLength(a, b)) / float64(total)
}

// PartialRatio is the best Ratio of the shorter string against every
// equally long window of the longer one.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 1
		}
		return 0
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := runeRatio(short, long[i:i+len(short)])
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares a and b after sorting their words.
func TokenSortRatio(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	sort.Strings(ta)
	sort.Strings(tb)
	return Ratio(strings.Join(ta, " "), strings.Join(tb, " "))
}

// TokenSetRatio compares the shared words of a and b against each side's
// shared-plus-remaining words, taking the best pairing.
func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for t := range setA {
		if setB[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := Ratio(combinedA, combinedB)
	if sect != "" {
		best = max(best, Ratio(sect, combinedA), Ratio(sect, combinedB))
	}
	return best
}

// Blend scores how well candidate matches canonical, case-insensitively:
// a weighted blend of Ratio, PartialRatio, TokenSortRatio and TokenSetRatio,
// plus a bonus when the names are close in length. The result is capped at 1.
func Blend(candidate, canonical string) float64 {
	a := strings.ToLower(strings.TrimSpace(candidate))
	b := strings.ToLower(strings.TrimSpace(canonical))
	if a == "" || b == "" {
		return 0
	}

	score := ratioWeight*Ratio(a, b) +
		partialWeight*PartialRatio(a, b) +
		tokenSortWeight*TokenSortRatio(a, b) +
		tokenSetWeight*TokenSetRatio(a, b)

	diff := len([]rune(a)) - len([]rune(b))
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		score += closeLengthBonus
	case diff <= 5:
		score += nearLengthBonus
	}

	return min(score, 1.0)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// tokens lowercases s and splits it on anything that is not a letter or digit.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokens(s) {
		set[t] = true
	}
	return set
}
