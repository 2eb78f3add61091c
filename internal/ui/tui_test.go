package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(a Answerer) *replModel {
	m := newReplModel(context.Background(), a, NewConfig(nil, &bytes.Buffer{}, WithK(2), WithSummary("2 chunks")))
	m.styles = NoColorStyles()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

// enter types line and presses Enter, running any resulting command.
func enter(m *replModel, line string) tea.Cmd {
	m.input.SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestReplModel_InitialView(t *testing.T) {
	m := newTestModel(&fakeAnswerer{})

	view := m.View()

	assert.Contains(t, view, "docqa")
	assert.Contains(t, view, "2 chunks")
	assert.Contains(t, view, "Ready.")
}

func TestReplModel_QuestionRoundTrip(t *testing.T) {
	// Given: a model over an answerer with two results
	a := &fakeAnswerer{results: tableResults}
	m := newTestModel(a)

	// When: a question is submitted and its command completes
	cmd := enter(m, "keyed tables")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	m.Update(cmd())

	// Then: results are shown and the input is cleared
	assert.False(t, m.busy)
	assert.Equal(t, []int{2}, a.ks)
	assert.Empty(t, m.input.Value())
	view := m.View()
	assert.Contains(t, view, "1. Tables (0.750)")
	assert.Contains(t, view, `2 results for "keyed tables" (k=2)`)
}

func TestReplModel_SetK(t *testing.T) {
	a := &fakeAnswerer{results: tableResults}
	m := newTestModel(a)

	assert.Nil(t, enter(m, ":k 1"))
	m.Update(enter(m, "tables")())

	assert.Equal(t, []int{1}, a.ks)
	assert.Contains(t, m.View(), "k=1")
}

func TestReplModel_Error(t *testing.T) {
	m := newTestModel(&fakeAnswerer{err: errors.New("no snapshot loaded")})

	m.Update(enter(m, "tables")())

	assert.Contains(t, m.View(), "Error: no snapshot loaded")
}

func TestReplModel_InvalidCommandAndHelp(t *testing.T) {
	m := newTestModel(&fakeAnswerer{})

	assert.Nil(t, enter(m, ":k x"))
	assert.Contains(t, m.status, "non-negative integer")

	assert.Nil(t, enter(m, ":help"))
	assert.Contains(t, m.View(), ":k N")
}

func TestReplModel_BusyIgnoresSubmit(t *testing.T) {
	a := &fakeAnswerer{results: tableResults}
	m := newTestModel(a)

	first := enter(m, "tables")
	require.NotNil(t, first)

	assert.Nil(t, enter(m, "namespaces"))
}

func TestReplModel_Quit(t *testing.T) {
	for _, msg := range []tea.Msg{
		tea.KeyMsg{Type: tea.KeyCtrlC},
		tea.KeyMsg{Type: tea.KeyEsc},
	} {
		m := newTestModel(&fakeAnswerer{})

		_, cmd := m.Update(msg)

		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}

	m := newTestModel(&fakeAnswerer{})
	cmd := enter(m, ":quit")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
