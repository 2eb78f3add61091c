package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

const textDoc = `INTRODUCTION

Namespaces group related functions.
They avoid naming collisions.

Section 2 Vectors

Q supports vector operations natively.
`

const markdownDoc = "# Intro\n\n" +
	"Namespaces group related functions.\n" +
	"They avoid naming collisions.\n\n" +
	"![diagram](d.png)\n\n" +
	"## Tables\n\n" +
	"| a | b |\n|---|---|\n| 1 | 2 |\n\n" +
	"- first item\n- second item\n\n" +
	"```q\nf:{x+1}\n```\n"

func TestTextSource_Sections(t *testing.T) {
	src := SourceFor(FormatText, "", DefaultOptions())

	sections, err := src.Sections(context.Background(), strings.NewReader(textDoc))

	require.NoError(t, err)
	assert.Equal(t, []Section{
		{Header: "INTRODUCTION", Body: "Namespaces group related functions. They avoid naming collisions."},
		{Header: "Section 2 Vectors", Body: "Q supports vector operations natively."},
	}, sections)
}

func TestMarkdownSource_Sections(t *testing.T) {
	// Given: a markdown document with an image, a table, a list and code
	src := SourceFor(FormatAuto, "guide.md", DefaultOptions())
	require.Equal(t, FormatMarkdown, src.Format())

	// When: it is read
	sections, err := src.Sections(context.Background(), strings.NewReader(markdownDoc))

	// Then: headings start sections and figures become markers
	require.NoError(t, err)
	assert.Equal(t, []Section{
		{Header: "Intro", Body: "Namespaces group related functions. They avoid naming collisions. [FIGURE_OR_TABLE]"},
		{Header: "Tables", Body: "[FIGURE_OR_TABLE] first item second item f:{x+1}"},
	}, sections)
}

func TestJSONLSource_Sections(t *testing.T) {
	input := `{"header":"Intro","body":"Namespaces group related functions."}

{"body":"No header here."}
{"header":"Empty","body":""}
`
	src := SourceFor(FormatAuto, "chunks.jsonl", DefaultOptions())

	sections, err := src.Sections(context.Background(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []Section{
		{Header: "Intro", Body: "Namespaces group related functions."},
		{Header: "", Body: "No header here."},
		{Header: "Empty", Body: ""},
	}, sections)
}

func TestJSONLSource_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "missing body", input: `{"header":"x"}`, want: "line 1 has no body"},
		{name: "not json", input: "{\"body\":\"ok\"}\nnot json", want: "line 2 is not a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&JSONLSource{}).Sections(context.Background(), strings.NewReader(tt.input))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, qaerrors.ErrCodeInvalidInput, qaerrors.GetCode(err))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	f, err = ParseFormat("Markdown")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("pdf")
	require.Error(t, err)
	assert.Equal(t, qaerrors.ErrCodeConfigInvalid, qaerrors.GetCode(err))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatMarkdown, FormatFromPath("a/README.MD"))
	assert.Equal(t, FormatMarkdown, FormatFromPath("x.markdown"))
	assert.Equal(t, FormatJSONL, FormatFromPath("x.ndjson"))
	assert.Equal(t, FormatText, FormatFromPath("x.txt"))
	assert.Equal(t, FormatText, FormatFromPath("Makefile"))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func bodies(t *testing.T, paths []string, opts Options) []string {
	t.Helper()
	c, err := Ingest(context.Background(), paths, opts)
	require.NoError(t, err)
	return c.Bodies()
}

func TestIngest_DirectoryOrderAndIgnore(t *testing.T) {
	// Given: a directory with mixed formats, hidden files and ignore rules
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "ALPHA\n\nFirst file.\n")
	writeFile(t, dir, "b.md", "# Beta\n\nSecond file.\n")
	writeFile(t, dir, "debug.log", "ignored by pattern\n")
	writeFile(t, dir, ".hidden.txt", "hidden\n")
	writeFile(t, dir, "notes/c.jsonl", `{"header":"Gamma","body":"Third file."}`+"\n")
	writeFile(t, dir, "skip/x.txt", "ignored directory\n")
	writeFile(t, dir, IgnoreFileName, "# local rules\nskip/\n*.log\n")

	// When: it is ingested
	c, err := Ingest(context.Background(), []string{dir}, DefaultOptions())

	// Then: files are read in lexical order and excluded entries are skipped
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	chunks := c.Chunks()
	assert.Equal(t, "ALPHA", chunks[0].Header)
	assert.Equal(t, "First file.", chunks[0].Body)
	assert.Equal(t, "Beta", chunks[1].Header)
	assert.Equal(t, "Second file.", chunks[1].Body)
	assert.Equal(t, "Gamma", chunks[2].Header)
	assert.Equal(t, "Third file.", chunks[2].Body)
}

func TestIngest_ExcludeWithNegation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "drop.md", "Dropped.\n")
	writeFile(t, dir, "keep.md", "Kept.\n")
	writeFile(t, dir, "plain.txt", "Plain.\n")

	opts := DefaultOptions()
	opts.Exclude = []string{"*.md", "!keep.md"}

	assert.Equal(t, []string{"Kept.", "Plain."}, bodies(t, []string{dir}, opts))
}

func TestIngest_PathsKeepArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z.txt", "Zed.\n")
	writeFile(t, dir, "a.txt", "Ay.\n")

	got := bodies(t, []string{filepath.Join(dir, "z.txt"), filepath.Join(dir, "a.txt")}, DefaultOptions())

	assert.Equal(t, []string{"Zed.", "Ay."}, got)
}

func TestIngest_Stdin(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = FormatJSONL
	opts.Stdin = strings.NewReader(`{"header":"H","body":"From stdin."}`)

	assert.Equal(t, []string{"From stdin."}, bodies(t, []string{StdinPath}, opts))
}

func TestIngest_ForcedFormatOverridesExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.md", "# not a heading in text mode\n")

	opts := DefaultOptions()
	opts.Format = FormatText
	c, err := Ingest(context.Background(), []string{dir}, opts)

	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "# not a heading in text mode", c.Chunks()[0].Body)
}

func TestIngest_Errors(t *testing.T) {
	t.Run("no paths", func(t *testing.T) {
		_, err := Ingest(context.Background(), nil, DefaultOptions())
		require.Error(t, err)
		assert.Equal(t, qaerrors.ErrCodeInvalidInput, qaerrors.GetCode(err))
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Ingest(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, DefaultOptions())
		require.Error(t, err)
		assert.Equal(t, qaerrors.ErrCodeFileNotFound, qaerrors.GetCode(err))
	})

	t.Run("bad jsonl carries path", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "bad.jsonl", `{"header":"x"}`)

		_, err := Ingest(context.Background(), []string{dir}, DefaultOptions())

		require.Error(t, err)
		var qe *qaerrors.QAError
		require.True(t, errors.As(err, &qe))
		assert.Equal(t, filepath.Join(dir, "bad.jsonl"), qe.Details["path"])
	})

	t.Run("cancelled", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.txt", "A.\n")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Ingest(ctx, []string{dir}, DefaultOptions())

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIgnoreMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		isDir    bool
		want     bool
	}{
		{name: "extension anywhere", patterns: []string{"*.log"}, path: "logs/error.log", want: true},
		{name: "extension mismatch", patterns: []string{"*.log"}, path: "error.txt", want: false},
		{name: "dir-only matches dir", patterns: []string{"skip/"}, path: "skip", isDir: true, want: true},
		{name: "dir-only skips file", patterns: []string{"skip/"}, path: "skip", want: false},
		{name: "dir-only covers children", patterns: []string{"skip/"}, path: "skip/x.txt", want: true},
		{name: "anchored root", patterns: []string{"/top.txt"}, path: "top.txt", want: true},
		{name: "anchored not nested", patterns: []string{"/top.txt"}, path: "sub/top.txt", want: false},
		{name: "inner slash anchors", patterns: []string{"docs/*.md"}, path: "docs/a.md", want: true},
		{name: "star stays in segment", patterns: []string{"docs/*.md"}, path: "docs/sub/a.md", want: false},
		{name: "leading double star", patterns: []string{"**/build"}, path: "out/build", isDir: true, want: true},
		{name: "inner double star", patterns: []string{"a/**/z.txt"}, path: "a/b/c/z.txt", want: true},
		{name: "inner double star zero dirs", patterns: []string{"a/**/z.txt"}, path: "a/z.txt", want: true},
		{name: "negation re-includes", patterns: []string{"*.md", "!keep.md"}, path: "keep.md", want: false},
		{name: "negation leaves others", patterns: []string{"*.md", "!keep.md"}, path: "drop.md", want: true},
		{name: "comments and blanks", patterns: []string{"# *.txt", "", "   "}, path: "a.txt", want: false},
		{name: "escaped bang", patterns: []string{`\!important.txt`}, path: "!important.txt", want: true},
		{name: "question mark", patterns: []string{"file?.txt"}, path: "file1.txt", want: true},
		{name: "question mark one rune", patterns: []string{"file?.txt"}, path: "file12.txt", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newIgnoreMatcher(tt.patterns...)
			assert.Equal(t, tt.want, m.match(tt.path, tt.isDir))
		})
	}
}
