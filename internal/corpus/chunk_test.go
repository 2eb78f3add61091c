package corpus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

func TestCorpus_Append_AssignsSequentialIDs(t *testing.T) {
	// Given: an empty corpus
	c := New()

	// When: appending chunks
	a := c.Append("Intro", "Namespaces group related functions.")
	b := c.Append("Advanced", "Q supports vector operations natively.")

	// Then: IDs follow append order
	assert.Equal(t, ChunkID(0), a)
	assert.Equal(t, ChunkID(1), b)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []ChunkID{0, 1}, c.IDs())

	got, ok := c.Get(b)
	require.True(t, ok)
	assert.Equal(t, "Advanced", got.Header)
	assert.Equal(t, Fingerprint("Advanced", "Q supports vector operations natively."), got.Fingerprint)

	_, ok = c.Get(5)
	assert.False(t, ok)
}

func TestFingerprint_SeparatesHeaderFromBody(t *testing.T) {
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
	assert.Equal(t, Fingerprint("a", "b"), Fingerprint("a", "b"))
}

func TestFromChunks_RestoresOrder(t *testing.T) {
	src := New()
	src.Append("one", "first body")
	src.Append("two", "second body")
	chunks := src.Chunks()
	chunks[0], chunks[1] = chunks[1], chunks[0]

	restored, err := FromChunks(chunks)
	require.NoError(t, err)

	assert.Equal(t, src.Chunks(), restored.Chunks())
	assert.Equal(t, src.Digest(), restored.Digest())
}

func TestFromChunks_RejectsGapsAndTampering(t *testing.T) {
	src := New()
	src.Append("one", "first body")
	src.Append("two", "second body")

	gapped := src.Chunks()[1:]
	_, err := FromChunks(gapped)
	assert.True(t, errors.Is(err, qaerrors.ErrInconsistentSnapshot))

	tampered := src.Chunks()
	tampered[1].Body = "edited"
	_, err = FromChunks(tampered)
	assert.True(t, errors.Is(err, qaerrors.ErrInconsistentSnapshot))
}

func TestDigest_DependsOnOrder(t *testing.T) {
	a := New()
	a.Append("h1", "b1")
	a.Append("h2", "b2")
	b := New()
	b.Append("h2", "b2")
	b.Append("h1", "b1")

	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"basic", "Namespaces group related functions. They avoid naming collisions. This is basic.",
			[]string{"Namespaces group related functions", "They avoid naming collisions", "This is basic"}},
		{"drops empty fragments", "One.. . Two...", []string{"One", "Two"}},
		{"no period", "single fragment", []string{"single fragment"}},
		{"only periods", " . . ", []string{}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.body))
		})
	}
}
