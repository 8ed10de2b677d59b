package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s case-folded with combining marks removed, so "Méditation"
// and "MEDITATION" compare equal.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Words splits s into folded runs of letters and digits.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HasWord reports whether any whole-word token of s equals one of words after
// folding.
func HasWord(s string, words ...string) bool {
	if len(words) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(words))
	for _, w := range words {
		want[Fold(w)] = struct{}{}
	}
	for _, token := range Words(s) {
		if _, ok := want[token]; ok {
			return true
		}
	}
	return false
}
