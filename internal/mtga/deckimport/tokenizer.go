package deckimport

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/cards/catalog"
)

const (
	minLineLength = 3
	maxLineLength = 40

	// MaxQuantity is the largest plausible copy count on a non-basic card line.
	MaxQuantity = 20
	// MaxBasicQuantity bounds basic land lines, which legitimately exceed MaxQuantity.
	MaxBasicQuantity = 60
)

var (
	// "4 Lightning Bolt", "4x Lightning Bolt"
	leadingQtyPattern = regexp.MustCompile(`^(\d+)\s*[xX]?\s+(.+)$`)
	// "Lightning Bolt x4", "Lightning Bolt 4"
	trailingQtyPattern = regexp.MustCompile(`^(.+?)\s+[xX]?\s*(\d+)$`)
	// "(2) Negate"
	parenQtyPattern = regexp.MustCompile(`^\((\d+)\)\s*(.+)$`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// uiLabels are deck-builder chrome that never name a card.
var uiLabels = map[string]bool{
	"deck": true, "decks": true, "sideboard": true, "side": true, "sb": true,
	"reserve": true, "mainboard": true, "main": true, "main deck": true,
	"companion": true, "commander": true, "cards": true, "done": true,
	"edit": true, "edit deck": true, "export": true, "import": true,
	"search": true, "filter": true, "filters": true, "sort": true,
	"apply filters": true, "display": true, "collection": true, "craft": true,
	"lands": true, "creatures": true, "other": true, "instants": true,
	"sorceries": true, "artifacts": true, "enchantments": true,
	"planeswalkers": true, "back": true, "save": true, "cancel": true,
	"total": true, "play": true, "home": true, "store": true, "mastery": true,
	"profile": true, "new deck": true, "deck details": true,
}

// strongRulesKeywords only appear in rules or reminder text of long lines.
var strongRulesKeywords = []string{
	"target", "battlefield", "enters", "whenever", "until end of turn",
	"you control", "graveyard", "opponent",
}

// weakRulesKeywords are suspicious only in combination.
var weakRulesKeywords = []string{
	"creature", "instant", "sorcery", "enchantment", "artifact",
	"planeswalker", "each", "when", "draw", "gain", "loses", "gets", "until",
	"beginning", "upkeep", "combat", "damage", "mana", "tapped",
}

// lowercaseWords stay lowercase in card names unless they lead the name.
var lowercaseWords = map[string]bool{
	"of": true, "the": true, "to": true, "a": true, "an": true, "in": true,
	"on": true, "at": true, "for": true, "and": true, "from": true,
	"with": true, "into": true,
}

// Tokenize splits one OCR line into a quantity and a cleaned candidate name.
// ok is false when the line is not a card line (headers, chrome, rules text).
func Tokenize(line string) (quantity int, name string, ok bool) {
	text := normalizeLine(line)
	if rejectLine(text) {
		return 0, "", false
	}

	type pattern struct {
		re      *regexp.Regexp
		qtyIdx  int
		nameIdx int
	}
	patterns := []pattern{
		{leadingQtyPattern, 1, 2},
		{trailingQtyPattern, 2, 1},
		{parenQtyPattern, 1, 2},
	}

	fallback := ""
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := CleanName(m[p.nameIdx])
		if candidate == "" {
			continue
		}
		q, err := strconv.Atoi(m[p.qtyIdx])
		if err != nil || !plausibleQuantity(q, candidate) {
			// Implausible count: remember the name with quantity 1 and keep scanning.
			if fallback == "" {
				fallback = candidate
			}
			continue
		}
		if rejectName(candidate) {
			return 0, "", false
		}
		return q, candidate, true
	}

	if fallback != "" && !rejectName(fallback) {
		return 1, fallback, true
	}

	bare := CleanName(text)
	if bare == "" || rejectName(bare) {
		return 0, "", false
	}
	return 1, bare, true
}

func plausibleQuantity(q int, name string) bool {
	if q < 1 {
		return false
	}
	if catalog.IsBasicLandName(name) {
		return q <= MaxBasicQuantity
	}
	return q <= MaxQuantity
}

func normalizeLine(line string) string {
	s := norm.NFKC.String(line)
	s = strings.NewReplacer("’", "'", "‘", "'", "´", "'", "`", "'").Replace(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// rejectLine applies the line-level rejection rules before tokenizing.
func rejectLine(text string) bool {
	if len([]rune(text)) < minLineLength {
		return true
	}
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		return true
	}
	if isUILabel(text) {
		return true
	}
	if isMTGOCounter(text) {
		return true
	}
	return looksLikeRulesText(text)
}

// rejectName re-checks the cleaned name, which no longer carries a quantity.
func rejectName(name string) bool {
	if len([]rune(name)) < minLineLength {
		return true
	}
	if !strings.ContainsFunc(name, unicode.IsLetter) {
		return true
	}
	return isUILabel(name)
}

func isUILabel(text string) bool {
	label := strings.ToLower(strings.TrimSpace(text))
	label = strings.TrimRight(label, ":0123456789() ")
	return uiLabels[label]
}

func looksLikeRulesText(text string) bool {
	if len(text) > maxLineLength {
		return true
	}
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	hits := 0
	strong := false
	for _, kw := range strongRulesKeywords {
		if containsWord(lower, kw) {
			hits++
			strong = true
		}
	}
	for _, kw := range weakRulesKeywords {
		if containsWord(lower, kw) {
			hits++
		}
	}
	if hits >= 2 {
		return true
	}
	// A lone strong keyword is tolerated in short names like "Battlefield Forge".
	return strong && len(words) >= 4
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		before := start == 0 || !isWordRune(rune(text[start-1]))
		after := end == len(text) || !isWordRune(rune(text[end]))
		if before && after {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// CleanName strips stray characters, collapses whitespace and title-cases a
// candidate card name.
func CleanName(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == ' ', r == '\'', r == ',', r == '-', r == '/':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, normalizeLine(raw))

	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return ""
	}

	caser := cases.Title(language.English)
	for i, w := range words {
		lw := strings.ToLower(w)
		if i > 0 && lowercaseWords[lw] {
			words[i] = lw
			continue
		}
		// A leading digit is an OCR misread, not a word boundary.
		if unicode.IsDigit([]rune(lw)[0]) {
			words[i] = lw
			continue
		}
		words[i] = caser.String(lw)
	}
	return strings.Trim(strings.Join(words, " "), " ,-/")
}
