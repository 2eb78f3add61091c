package ingest

import (
	"strings"
	"unicode"
)

// HeaderDetector decides whether a block of text is a section header.
type HeaderDetector interface {
	IsHeader(text string) bool
}

// Default heuristic parameters.
const (
	DefaultHeaderMaxWords = 7
)

// DefaultHeaderPrefixes are the lowercase prefixes that always mark a header.
var DefaultHeaderPrefixes = []string{"chapter ", "section ", "kdb+ - "}

// HeuristicDetector recognizes headers by shape. A block is a header when
// it is upper case with at most MaxWords words, starts with one of
// Prefixes (case-insensitively), or ends with ':' and has at most MaxWords
// words.
type HeuristicDetector struct {
	MaxWords int
	Prefixes []string
}

// Verify interface implementation
var _ HeaderDetector = HeuristicDetector{}

// NewHeuristicDetector returns the detector with default parameters.
func NewHeuristicDetector() HeuristicDetector {
	return HeuristicDetector{
		MaxWords: DefaultHeaderMaxWords,
		Prefixes: append([]string(nil), DefaultHeaderPrefixes...),
	}
}

// IsHeader implements HeaderDetector.
func (d HeuristicDetector) IsHeader(text string) bool {
	words := len(strings.Fields(text))
	if isUpper(text) && words <= d.MaxWords {
		return true
	}

	lower := strings.ToLower(text)
	for _, p := range d.Prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}

	return strings.HasSuffix(strings.TrimSpace(text), ":") && words <= d.MaxWords
}

// isUpper reports whether text has at least one upper case letter and no
// lower or title case letters.
func isUpper(text string) bool {
	cased := false
	for _, r := range text {
		switch {
		case unicode.IsLower(r) || unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}
