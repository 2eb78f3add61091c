// Package ingest turns source documents into the ordered (header, body)
// chunk sequence the rest of the pipeline is built over.
//
// Plain text and markdown go through an Extractor, which detects headers
// and sizes chunks. JSON Lines input is taken as already chunked. Files
// are visited in lexical order so that the same inputs always produce the
// same chunk IDs.
package ingest

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/docqa/internal/corpus"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// StdinPath reads the document from standard input.
const StdinPath = "-"

// Options configure ingestion. Zero values select the defaults.
type Options struct {
	MaxChunkChars  int
	FigureMarker   string
	HeaderMaxWords int
	HeaderPrefixes []string

	// Format forces one source for every file. Auto picks by extension.
	Format Format

	// Exclude holds extra ignore patterns applied after .docqaignore.
	Exclude []string

	// Stdin is read when a path is StdinPath. Defaults to os.Stdin.
	Stdin io.Reader
}

// DefaultOptions returns the extractor defaults with automatic format
// detection.
func DefaultOptions() Options {
	return Options{
		MaxChunkChars:  DefaultMaxChunkChars,
		FigureMarker:   DefaultFigureMarker,
		HeaderMaxWords: DefaultHeaderMaxWords,
		HeaderPrefixes: append([]string(nil), DefaultHeaderPrefixes...),
		Format:         FormatAuto,
	}
}

func (o Options) detector() HeaderDetector {
	d := NewHeuristicDetector()
	if o.HeaderMaxWords > 0 {
		d.MaxWords = o.HeaderMaxWords
	}
	if o.HeaderPrefixes != nil {
		d.Prefixes = make([]string, len(o.HeaderPrefixes))
		for i, p := range o.HeaderPrefixes {
			d.Prefixes[i] = strings.ToLower(p)
		}
	}
	return d
}

func (o Options) newExtractor() *Extractor {
	return NewExtractor(o.detector(), o.MaxChunkChars, o.FigureMarker)
}

// SourceFor returns the source for format. Auto resolves by the extension
// of name: .md and .markdown are markdown, .jsonl and .ndjson are JSON
// Lines, anything else is plain text.
func SourceFor(format Format, name string, opts Options) Source {
	if format == "" || format == FormatAuto {
		format = FormatFromPath(name)
	}
	switch format {
	case FormatMarkdown:
		return newMarkdownSource(opts)
	case FormatJSONL:
		return &JSONLSource{}
	default:
		return &TextSource{opts: opts}
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatText
	}
}

// Ingest reads every path in order and appends the resulting sections to
// a new corpus. Directories are walked recursively in lexical order,
// skipping hidden entries and anything matched by the directory's
// .docqaignore or opts.Exclude.
func Ingest(ctx context.Context, paths []string, opts Options) (*corpus.Corpus, error) {
	if len(paths) == 0 {
		return nil, qaerrors.ValidationError("no input paths given", nil).
			WithSuggestion("Pass one or more files or directories, or - for stdin")
	}

	c := corpus.New()
	for _, p := range paths {
		files, err := expand(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			sections, err := readFile(ctx, f, opts)
			if err != nil {
				return nil, err
			}
			for _, s := range sections {
				c.Append(s.Header, s.Body)
			}
			slog.Debug("document_ingested",
				slog.String("path", f),
				slog.Int("sections", len(sections)))
		}
	}

	slog.Info("ingest_complete",
		slog.Int("inputs", len(paths)),
		slog.Int("chunks", c.Len()))
	return c, nil
}

// expand resolves p to the ordered list of files it names.
func expand(ctx context.Context, p string, opts Options) ([]string, error) {
	if p == StdinPath {
		return []string{p}, nil
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, qaerrors.IOError("cannot access input", err).WithDetail("path", p)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}

	ignore := newIgnoreMatcher()
	if err := ignore.addFile(filepath.Join(p, IgnoreFileName)); err != nil {
		return nil, err
	}
	for _, pattern := range opts.Exclude {
		ignore.add(pattern)
	}

	var files []string
	err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == p {
			return nil
		}

		rel, err := filepath.Rel(p, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") || ignore.match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, qaerrors.IOError("failed to walk input directory", err).WithDetail("path", p)
	}

	return files, nil
}

func readFile(ctx context.Context, path string, opts Options) ([]Section, error) {
	src := SourceFor(opts.Format, path, opts)

	if path == StdinPath {
		r := opts.Stdin
		if r == nil {
			r = os.Stdin
		}
		return src.Sections(ctx, r)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, qaerrors.IOError("failed to open input", err).WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	sections, err := src.Sections(ctx, f)
	if err != nil {
		var qe *qaerrors.QAError
		if errors.As(err, &qe) {
			return nil, qe.WithDetail("path", path)
		}
		return nil, err
	}
	return sections, nil
}
