// Package output provides consistent CLI output: status lines and rendering
// of answer_context results and snapshot metadata.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Aman-CERP/docqa/internal/engine"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/snapshot"
)

// Format selects how query results are rendered.
type Format string

const (
	// FormatText is the human-readable listing with similarity scores.
	FormatText Format = "text"
	// FormatJSON is a JSON array of results.
	FormatJSON Format = "json"
	// FormatPrompt is the "Header: ...\nContext: ..." block for a language model.
	FormatPrompt Format = "prompt"
)

// ParseFormat parses a result format name. Empty selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatPrompt:
		return FormatPrompt, nil
	default:
		return "", qaerrors.ValidationError(
			fmt.Sprintf("unknown output format %q (supported: text, json, prompt)", s), nil)
	}
}

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Results renders query results in the given format.
func (w *Writer) Results(query string, results []engine.SearchResult, format Format) error {
	switch format {
	case FormatJSON:
		if results == nil {
			results = []engine.SearchResult{}
		}
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatPrompt:
		_, err := io.WriteString(w.out, engine.FormatContext(results))
		return err
	default:
		w.textResults(query, results)
		return nil
	}
}

func (w *Writer) textResults(query string, results []engine.SearchResult) {
	if len(results) == 0 {
		w.Statusf("", "No context found for %q", query)
		return
	}

	w.Statusf("🔍", "Found %d results for %q:", len(results), query)
	w.Newline()
	for i, r := range results {
		w.Statusf("", "%d. %s (similarity: %.3f, chunk %d)", i+1, r.Header, r.Similarity, r.ChunkID)
		for _, line := range strings.Split(r.Context, "\n") {
			w.Status("", "   "+line)
		}
		w.Newline()
	}
}

// SnapshotInfo renders snapshot metadata.
func (w *Writer) SnapshotInfo(path string, info snapshot.Info) {
	w.Statusf("📦", "Snapshot: %s", path)
	w.Statusf("", "Chunks:       %d", info.Chunks)
	w.Statusf("", "Vocabulary:   %d terms", info.Vocabulary)
	w.Statusf("", "Backend:      %s", info.Backend)
	w.Statusf("", "Stemming:     %t", info.Stemming)
	w.Statusf("", "Digest:       %s", info.CorpusDigest)
	w.Statusf("", "Created:      %s", info.CreatedAt.Local().Format(time.RFC3339))
	w.Statusf("", "Version:      %s", info.Version)
}
