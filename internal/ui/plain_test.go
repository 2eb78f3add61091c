package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPlain(t *testing.T, a Answerer, input string, opts ...ConfigOption) string {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := NewConfig(strings.NewReader(input), out, opts...)
	require.NoError(t, RunPlain(context.Background(), a, cfg))
	return out.String()
}

func TestRunPlain_AnswersEachLine(t *testing.T) {
	// Given: two questions separated by a blank line
	a := &fakeAnswerer{results: tableResults}

	// When: they are piped in
	out := runPlain(t, a, "keyed tables\n\nnamespaces\n", WithSummary("snapshot: 2 chunks"))

	// Then: each is answered with the default k
	assert.Equal(t, []string{"keyed tables", "namespaces"}, a.queries)
	assert.Equal(t, []int{5, 5}, a.ks)
	assert.True(t, strings.HasPrefix(out, "snapshot: 2 chunks\n> "))
	assert.Equal(t, 2, strings.Count(out, "1. Tables (0.750)"))
}

func TestRunPlain_SetK(t *testing.T) {
	a := &fakeAnswerer{results: tableResults}

	out := runPlain(t, a, ":k 1\ntables\n")

	assert.Contains(t, out, "k = 1")
	assert.Equal(t, []int{1}, a.ks)
	assert.NotContains(t, out, "2. Intro")
}

func TestRunPlain_QuitStopsReading(t *testing.T) {
	a := &fakeAnswerer{results: tableResults}

	runPlain(t, a, ":q\ntables\n")

	assert.Empty(t, a.queries)
}

func TestRunPlain_ErrorsDoNotStopLoop(t *testing.T) {
	// Given: an answerer that fails
	a := &fakeAnswerer{err: errors.New("no snapshot loaded")}

	// When: a bad command and two questions arrive
	out := runPlain(t, a, ":bogus\nfirst\nsecond\n")

	// Then: every line is reported and the loop continues
	assert.Contains(t, out, "error: unknown command :bogus")
	assert.Equal(t, 2, strings.Count(out, "error: no snapshot loaded"))
	assert.Len(t, a.queries, 2)
}

func TestRunPlain_EmptyResult(t *testing.T) {
	a := &fakeAnswerer{}

	out := runPlain(t, a, "zebra\n")

	assert.Contains(t, out, "No matching context found.")
}

func TestRunPlain_Help(t *testing.T) {
	out := runPlain(t, &fakeAnswerer{}, ":help\n")

	assert.Contains(t, out, ":k N")
}

func TestRunPlain_CanceledContext(t *testing.T) {
	a := &fakeAnswerer{results: tableResults}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunPlain(ctx, a, NewConfig(strings.NewReader("tables\n"), &bytes.Buffer{}))

	assert.NoError(t, err)
	assert.Empty(t, a.queries)
}
