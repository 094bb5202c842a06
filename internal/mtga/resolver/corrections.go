package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/mtga/deckimport"
)

// wordCorrection fixes a known whole-word OCR misread.
type wordCorrection struct {
	pattern *regexp.Regexp
	replace string
}

func wordFix(wrong, right string) wordCorrection {
	return wordCorrection{
		pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(wrong) + `\b`),
		replace: right,
	}
}

// wordCorrections are applied in order; phrase fixes come before the
// single words they contain.
var wordCorrections = []wordCorrection{
	wordFix("lighming", "lightning"),
	wordFix("lighlning", "lightning"),
	wordFix("lightnmg", "lightning"),
	wordFix("snapcasler", "snapcaster"),
	wordFix("snapcasfer", "snapcaster"),
	wordFix("brainsform", "brainstorm"),
	wordFix("brainsforrn", "brainstorm"),
	wordFix("counlerspell", "counterspell"),
	wordFix("mana crypl", "mana crypt"),
	wordFix("mana crypf", "mana crypt"),
	wordFix("sol rmg", "sol ring"),
	wordFix("sol rlng", "sol ring"),
	wordFix("force oi", "force of"),
	wordFix("force ol", "force of"),
	wordFix("oi will", "of will"),
	wordFix("ol will", "of will"),
	wordFix("leleri", "teferi"),
	wordFix("teleri", "teferi"),
	wordFix("jace lhe", "jace the"),
	wordFix("jace fhe", "jace the"),
	wordFix("gideon oi", "gideon of"),
	wordFix("gideon ol", "gideon of"),
	wordFix("planeswalher", "planeswalker"),
	wordFix("crealure", "creature"),
	wordFix("mslant", "instant"),
	wordFix("enchanlment", "enchantment"),
	wordFix("arlifact", "artifact"),
	wordFix("lerra", "serra"),
	wordFix("swords fo", "swords to"),
	wordFix("swords lo", "swords to"),
	wordFix("conmander", "commander"),
	wordFix("cornmander", "commander"),
}

// charCorrections are digit and symbol misreads of letters.
var charCorrections = map[rune]rune{
	'0': 'o',
	'1': 'l',
	'5': 's',
	'8': 'b',
	'6': 'g',
	'9': 'g',
	'|': 'l',
	'!': 'i',
	'@': 'a',
	'$': 's',
}

// Correct applies the OCR confusion tables to a candidate name and returns
// the cleaned result. Character substitutions only touch words longer than
// two characters that contain a letter, and skip the first character unless
// the word is longer than three.
func Correct(name string) string {
	text := strings.ToLower(name)
	for _, wc := range wordCorrections {
		text = wc.pattern.ReplaceAllString(text, wc.replace)
	}

	words := strings.Fields(text)
	for i, w := range words {
		words[i] = correctChars(w)
	}

	return deckimport.CleanName(strings.Join(words, " "))
}

func correctChars(word string) string {
	runes := []rune(word)
	if len(runes) <= 2 || !strings.ContainsFunc(word, unicode.IsLetter) {
		return word
	}
	for i, r := range runes {
		fix, ok := charCorrections[r]
		if !ok {
			continue
		}
		if i == 0 && len(runes) <= 3 {
			continue
		}
		runes[i] = fix
	}
	return string(runes)
}
