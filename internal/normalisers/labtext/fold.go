package labtext

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the search form of s: accents removed, micro signs mapped
// to "u", upper case. Line breaks are preserved, so a folded text has the
// same line structure as its source.
func Fold(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case 'µ', 'μ':
			return 'u'
		case '\u00a0':
			return ' '
		}
		return r
	}, s)

	// Transformers carry state; build a fresh chain per call so Fold is
	// safe for concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(out)
}

// FoldKey folds s and collapses all whitespace to single spaces.
// It is used for alias and boilerplate comparison keys.
func FoldKey(s string) string {
	return strings.Join(strings.Fields(Fold(s)), " ")
}
