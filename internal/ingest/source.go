package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// Format names an input format.
type Format string

const (
	FormatAuto     Format = "auto"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSONL    Format = "jsonl"
)

// ParseFormat validates a format name. Empty selects auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatText, FormatMarkdown, FormatJSONL:
		return f, nil
	default:
		return "", qaerrors.ConfigError(
			fmt.Sprintf("unknown input format %q (supported: auto, text, markdown, jsonl)", s), nil)
	}
}

// Source reads one document into sections.
type Source interface {
	// Format names the source.
	Format() Format

	// Sections reads r to the end and returns its sections in order.
	Sections(ctx context.Context, r io.Reader) ([]Section, error)
}

// TextSource reads plain text. Blocks are separated by blank lines; the
// lines of a block are joined with single spaces.
type TextSource struct {
	opts Options
}

// Format implements Source.
func (s *TextSource) Format() Format { return FormatText }

// Sections implements Source.
func (s *TextSource) Sections(ctx context.Context, r io.Reader) ([]Section, error) {
	x := s.opts.newExtractor()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var block []string
	emit := func() {
		if len(block) > 0 {
			x.Text(strings.Join(block, " "))
			block = block[:0]
		}
	}
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			emit()
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, qaerrors.IOError("failed to read text input", err)
	}
	emit()

	return x.Finish(), nil
}

// maxLineBytes bounds a single input line.
const maxLineBytes = 16 * 1024 * 1024

// JSONLSource reads pre-chunked input: one {"header": ..., "body": ...}
// object per line. Blank lines are skipped.
type JSONLSource struct{}

// Format implements Source.
func (s *JSONLSource) Format() Format { return FormatJSONL }

// jsonlRecord distinguishes a missing body from an empty one.
type jsonlRecord struct {
	Header string  `json:"header"`
	Body   *string `json:"body"`
}

// Sections implements Source.
func (s *JSONLSource) Sections(ctx context.Context, r io.Reader) ([]Section, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var out []Section
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec jsonlRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, qaerrors.ValidationError(fmt.Sprintf("line %d is not a JSON object", line), err)
		}
		if rec.Body == nil {
			return nil, qaerrors.ValidationError(fmt.Sprintf("line %d has no body", line), nil)
		}
		out = append(out, Section{Header: rec.Header, Body: *rec.Body})
	}
	if err := scanner.Err(); err != nil {
		return nil, qaerrors.IOError("failed to read jsonl input", err)
	}
	return out, nil
}
