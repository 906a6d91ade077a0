package fetch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips diacritics: decompose, drop combining marks,
// recompose.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases text and removes diacritics, so "Educación" matches the
// keyword "educacion" and vice versa.
func fold(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// matchesAny reports whether the folded line contains any of the folded
// keywords.
func matchesAny(line string, foldedKeywords []string) bool {
	folded := fold(line)
	for _, kw := range foldedKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// foldAll folds every keyword once, up front.
func foldAll(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = fold(kw)
	}
	return out
}
