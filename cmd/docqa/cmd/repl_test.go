package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

func TestRepl_PlainWithPipedInput(t *testing.T) {
	// Given: a built snapshot
	dir := newProject(t)
	_, err := runCLI(t, dir, nil, "build", filepath.Join(dir, "docs"))
	require.NoError(t, err)

	// When: questions are piped into the REPL
	stdin := strings.NewReader(":k 1\nkeyed tables\n:bogus\n:quit\n")
	out, err := runCLI(t, dir, stdin, "repl", "--plain")

	// Then: each line is handled in order
	require.NoError(t, err)
	assert.Contains(t, out, "3 chunks")
	assert.Contains(t, out, "k = 1")
	assert.Contains(t, out, "1. Tables (")
	assert.NotContains(t, out, "2. ")
	assert.Contains(t, out, "error: unknown command :bogus")
}

func TestRepl_WithoutSnapshot(t *testing.T) {
	dir := newProject(t)

	_, err := runCLI(t, dir, strings.NewReader(""), "repl", "--plain")

	assert.Equal(t, qaerrors.ErrCodeSnapshotNotFound, qaerrors.GetCode(err))
}
