package ui

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/docqa/internal/engine"
)

// fakeAnswerer records calls and returns canned results.
type fakeAnswerer struct {
	results []engine.SearchResult
	err     error
	queries []string
	ks      []int
}

func (f *fakeAnswerer) AnswerContext(_ context.Context, query string, k int) ([]engine.SearchResult, error) {
	f.queries = append(f.queries, query)
	f.ks = append(f.ks, k)
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.results) {
		return f.results[:k], nil
	}
	return f.results, nil
}

var tableResults = []engine.SearchResult{
	{Header: "Tables", Context: "Keyed tables add a primary key.", Similarity: 0.75, ChunkID: 2},
	{Header: "Intro", Context: "Namespaces group related functions.", Similarity: 0.25, ChunkID: 0},
}

func TestIsTTY_WithBuffer_ReturnsFalse(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestIsTTY_WithNil_ReturnsFalse(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func TestNewConfig_Defaults(t *testing.T) {
	// Given: default config
	cfg := NewConfig(&bytes.Buffer{}, &bytes.Buffer{})

	// Then: has sensible defaults
	assert.Equal(t, 5, cfg.K)
	assert.False(t, cfg.ForcePlain)
	assert.False(t, cfg.NoColor)
}

func TestNewConfig_WithOptions(t *testing.T) {
	cfg := NewConfig(nil, nil,
		WithForcePlain(true),
		WithNoColor(true),
		WithK(3),
		WithSummary("3 chunks"))

	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, 3, cfg.K)
	assert.Equal(t, "3 chunks", cfg.Summary)
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestDetectCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"", command{kind: cmdEmpty}},
		{"   ", command{kind: cmdEmpty}},
		{"  what is a table? ", command{kind: cmdQuery, query: "what is a table?"}},
		{":q", command{kind: cmdQuit}},
		{":quit", command{kind: cmdQuit}},
		{":help", command{kind: cmdHelp}},
		{":k 3", command{kind: cmdSetK, k: 3}},
		{":k 0", command{kind: cmdSetK, k: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLine(tt.line))
		})
	}

	for _, bad := range []string{":k", ":k -1", ":k two", ":frobnicate"} {
		assert.Equal(t, cmdInvalid, parseLine(bad).kind, bad)
		assert.NotEmpty(t, parseLine(bad).err, bad)
	}
}

func TestRenderResults(t *testing.T) {
	out := renderResults(tableResults, NoColorStyles())

	assert.Equal(t,
		"1. Tables (0.750)\nKeyed tables add a primary key.\n\n2. Intro (0.250)\nNamespaces group related functions.\n",
		out)
}

func TestRenderResults_Empty(t *testing.T) {
	assert.Equal(t, "No matching context found.", renderResults(nil, NoColorStyles()))
}

func TestRun_NonTTYUsesPlainMode(t *testing.T) {
	// Given: piped input and a buffer for output
	a := &fakeAnswerer{results: tableResults}
	out := &bytes.Buffer{}
	cfg := NewConfig(bytes.NewBufferString("keyed tables\n"), out, WithK(1))

	// When: the REPL runs
	err := Run(context.Background(), a, cfg)

	// Then: it answered in line mode
	assert.NoError(t, err)
	assert.Equal(t, []string{"keyed tables"}, a.queries)
	assert.Contains(t, out.String(), "1. Tables (0.750)")
}
