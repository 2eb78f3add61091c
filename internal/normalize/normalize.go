// Package normalize cleans raw document and query text before vectorization.
//
// The same Normalize must be applied to corpus text at build time and to
// queries at search time; the two vector spaces only line up if it is.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// nonSpace matches a run of runes that unicode.IsSpace rejects.
const nonSpace = `[^\s\v\x{85}\p{Z}]+`

var (
	urlPattern       = regexp.MustCompile(`http` + nonSpace)
	copyrightPattern = regexp.MustCompile(`Copyright © ` + nonSpace)
)

// Normalize strips URLs and copyright notices, replaces punctuation other
// than brackets with spaces, collapses whitespace and trims.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = copyrightPattern.ReplaceAllString(text, "")
	text = strings.Map(keepOrSpace, text)
	return strings.Join(strings.Fields(text), " ")
}

// keepOrSpace maps every rune that is not a word character, whitespace or
// one of []{}() to a space.
func keepOrSpace(r rune) rune {
	switch {
	case IsWordRune(r), unicode.IsSpace(r):
		return r
	case r == '[' || r == ']' || r == '{' || r == '}' || r == '(' || r == ')':
		return r
	default:
		return ' '
	}
}

// IsWordRune reports whether r is a word character: a letter, a number or '_'.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
