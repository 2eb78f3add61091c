package ingest

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// IgnoreFileName is read from the root of every ingested directory.
const IgnoreFileName = ".docqaignore"

// ignoreMatcher applies gitignore-style exclusion patterns. Later patterns
// override earlier ones, so "!keep.md" after "*.md" re-includes keep.md.
type ignoreMatcher struct {
	rules []ignoreRule
}

type ignoreRule struct {
	re       *regexp.Regexp
	negation bool // leading !
	dirOnly  bool // trailing /
	anchored bool // leading / or an inner /
}

func newIgnoreMatcher(patterns ...string) *ignoreMatcher {
	m := &ignoreMatcher{}
	for _, p := range patterns {
		m.add(p)
	}
	return m
}

// add compiles one pattern. Blank lines and # comments are skipped.
func (m *ignoreMatcher) add(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	var r ignoreRule
	switch {
	case strings.HasPrefix(pattern, `\!`), strings.HasPrefix(pattern, `\#`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		r.negation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		r.anchored = true
	}
	if pattern == "" {
		return
	}

	r.re = regexp.MustCompile("^" + globToRegex(pattern) + "$")
	m.rules = append(m.rules, r)
}

// addFile reads patterns from path. A missing file is not an error.
func (m *ignoreMatcher) addFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return qaerrors.IOError("failed to open ignore file", err).WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return qaerrors.IOError("failed to read ignore file", err).WithDetail("path", path)
	}
	return nil
}

// match reports whether rel (slash separated, relative to the ingest root)
// is excluded.
func (m *ignoreMatcher) match(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	ignored := false
	for _, r := range m.rules {
		if r.matches(rel, isDir) {
			ignored = !r.negation
		}
	}
	return ignored
}

func (r ignoreRule) matches(rel string, isDir bool) bool {
	parts := strings.Split(rel, "/")

	if r.anchored {
		if r.re.MatchString(rel) {
			return !r.dirOnly || isDir
		}
		// A matched directory excludes everything below it.
		for i := 1; i < len(parts); i++ {
			if r.re.MatchString(strings.Join(parts[:i], "/")) {
				return true
			}
		}
		return false
	}

	for i, part := range parts {
		if !r.re.MatchString(part) {
			continue
		}
		if i < len(parts)-1 {
			return true // parent directory
		}
		return !r.dirOnly || isDir
	}
	return r.re.MatchString(rel) && (!r.dirOnly || isDir)
}

// globToRegex converts gitignore glob syntax: * and ? stay within one path
// segment, ** crosses segments, [...] classes pass through.
func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			if strings.HasPrefix(pattern[i:], "**/") {
				b.WriteString("(?:.*/)?")
				i += 2
			} else if strings.HasPrefix(pattern[i:], "**") {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			if j := strings.IndexByte(pattern[i+1:], ']'); j >= 0 {
				b.WriteString(pattern[i : i+j+2])
				i += j + 1
			} else {
				b.WriteString(`\[`)
			}
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}
