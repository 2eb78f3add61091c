package corpus

import "strings"

// SplitSentences splits body on '.' and returns the trimmed, non-empty
// fragments in their original order.
func SplitSentences(body string) []string {
	parts := strings.Split(body, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
