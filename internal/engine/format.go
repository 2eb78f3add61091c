package engine

import "strings"

// FormatContext renders results as the context block handed to a language
// model: "Header: ...\nContext: ...\n\n" per result, in rank order.
func FormatContext(results []SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString("Header: ")
		b.WriteString(r.Header)
		b.WriteString("\nContext: ")
		b.WriteString(r.Context)
		b.WriteString("\n\n")
	}
	return b.String()
}
