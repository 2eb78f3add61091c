package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docqa/internal/engine"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/snapshot"
)

var sampleResults = []engine.SearchResult{
	{Header: "Tables", Context: "Tables are lists of dictionaries. Keyed tables add a primary key.", Similarity: 0.8123, ChunkID: 2},
	{Header: "Intro", Context: "Namespaces group related functions.", Similarity: 0.1, ChunkID: 0},
}

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("🔍", "Loading snapshot...")

	// Then: output contains icon and message
	assert.Equal(t, "🔍 Loading snapshot...\n", buf.String())
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "detail")

	assert.Equal(t, "   detail\n", buf.String())
}

func TestWriter_Levels_PrintIcons(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		icon  string
		msg   string
	}{
		{"success", func(w *Writer) { w.Successf("Built %d chunks", 3) }, "✅", "Built 3 chunks"},
		{"warning", func(w *Writer) { w.Warningf("no snapshot at %s", "x.db") }, "⚠️", "no snapshot at x.db"},
		{"error", func(w *Writer) { w.Errorf("failed: %s", "boom") }, "❌", "failed: boom"},
		{"statusf", func(w *Writer) { w.Statusf("📂", "Found %d files", 42) }, "📂", "Found 42 files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.write(New(buf))

			assert.Contains(t, buf.String(), tt.icon)
			assert.Contains(t, buf.String(), tt.msg)
		})
	}
}

func TestWriter_Code_IndentsLines(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Code("retrieval:\n  top_k: 5")

	assert.Equal(t, "\n  retrieval:\n    top_k: 5\n\n", buf.String())
}

func TestWriter_Newline_PrintsEmptyLine(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Newline()

	assert.Equal(t, "\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{" prompt ", FormatPrompt},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("yaml")
	assert.Equal(t, qaerrors.ErrCodeInvalidInput, qaerrors.GetCode(err))
}

func TestWriter_Results_Text(t *testing.T) {
	// Given: two ranked results
	buf := &bytes.Buffer{}

	// When: rendered as text
	require.NoError(t, New(buf).Results("keyed tables", sampleResults, FormatText))

	// Then: both appear in rank order with their similarity
	out := buf.String()
	assert.Contains(t, out, `Found 2 results for "keyed tables"`)
	assert.Contains(t, out, "1. Tables (similarity: 0.812, chunk 2)")
	assert.Contains(t, out, "2. Intro (similarity: 0.100, chunk 0)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Tables are")), bytes.Index(buf.Bytes(), []byte("Namespaces")))
}

func TestWriter_Results_TextEmpty(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Results("zebra", nil, FormatText))

	assert.Contains(t, buf.String(), `No context found for "zebra"`)
}

func TestWriter_Results_JSON(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Results("q", sampleResults, FormatJSON))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Tables", decoded[0]["header"])
	assert.InDelta(t, 0.8123, decoded[0]["similarity"], 1e-9)
	assert.Equal(t, float64(2), decoded[0]["chunk_id"])
}

func TestWriter_Results_JSONEmptyIsArray(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Results("q", nil, FormatJSON))

	assert.Equal(t, "[]\n", buf.String())
}

func TestWriter_Results_Prompt(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Results("q", sampleResults[:1], FormatPrompt))

	assert.Equal(t,
		"Header: Tables\nContext: Tables are lists of dictionaries. Keyed tables add a primary key.\n\n",
		buf.String())
}

func TestWriter_SnapshotInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	info := snapshot.Info{
		Chunks:       3,
		Vocabulary:   17,
		Backend:      "flat",
		Stemming:     true,
		CorpusDigest: "abc123",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Version:      "1.0.0",
	}

	New(buf).SnapshotInfo(".docqa/snapshot.db", info)

	out := buf.String()
	assert.Contains(t, out, "Snapshot: .docqa/snapshot.db")
	assert.Contains(t, out, "Chunks:       3")
	assert.Contains(t, out, "Vocabulary:   17 terms")
	assert.Contains(t, out, "Backend:      flat")
	assert.Contains(t, out, "Digest:       abc123")
}
