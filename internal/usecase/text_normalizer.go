package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Maximum stored length of brand and category names
const maxEntityNameLength = 255

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// Ligatures that NFD does not decompose
var ligatureReplacer = strings.NewReplacer("œ", "oe", "Œ", "oe", "æ", "ae", "Æ", "ae")

// FoldText lower-cases s and strips diacritics, so "Boissons Gazéifiées"
// and "BOISSONS GAZEIFIEES" fold to the same string.
func FoldText(s string) string {
	if s == "" {
		return ""
	}
	folded := cases.Fold().String(s)
	folded = ligatureReplacer.Replace(folded)

	// A transform.Transformer keeps state, so build one per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(stripMarks, folded)
	if err != nil {
		return folded
	}
	return result
}

// Tokenize folds s and splits it on anything that is not a letter or digit.
// "en:breakfast-cereals, Céréales" yields [en breakfast cereals cereales].
func Tokenize(s string) []string {
	return strings.FieldsFunc(FoldText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeBrand turns a free-text brand field into its natural key.
// Only the first comma-separated brand is kept; whitespace is collapsed and
// the result case-folded. An empty result means "no brand".
func NormalizeBrand(raw string) string {
	first := raw
	if idx := strings.Index(first, ","); idx >= 0 {
		first = first[:idx]
	}
	first = multipleSpacesRegex.ReplaceAllString(first, " ")
	first = strings.TrimSpace(first)
	if first == "" {
		return ""
	}
	return truncateRunes(cases.Fold().String(first), maxEntityNameLength)
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runesOf := []rune(s)
	return string(runesOf[:n])
}
