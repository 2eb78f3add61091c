package engine

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/docqa/internal/corpus"
	"github.com/Aman-CERP/docqa/internal/normalize"
	"github.com/Aman-CERP/docqa/internal/vectorspace"
)

// chunkSentences is a chunk body split into sentences, with each
// sentence's unit-length TF-IDF vector.
type chunkSentences struct {
	text    []string
	vectors []vectorspace.Vector
}

func splitAndVectorize(model *vectorspace.Model, body string) *chunkSentences {
	text := corpus.SplitSentences(body)
	vectors := make([]vectorspace.Vector, len(text))
	for i, s := range text {
		vectors[i] = model.Transform(normalize.Normalize(s)).Normalized()
	}
	return &chunkSentences{text: text, vectors: vectors}
}

// sentenceSource yields the sentences of a chunk.
type sentenceSource interface {
	sentences(c corpus.Chunk) *chunkSentences
}

// onDemand vectorizes on every call.
type onDemand struct {
	model *vectorspace.Model
}

func (s onDemand) sentences(c corpus.Chunk) *chunkSentences {
	return splitAndVectorize(s.model, c.Body)
}

// cached keeps recently used chunks in a bounded LRU. The cache is
// internally synchronized.
type cached struct {
	model *vectorspace.Model
	cache *lru.Cache[corpus.ChunkID, *chunkSentences]
}

func newCached(model *vectorspace.Model, size int) *cached {
	cache, _ := lru.New[corpus.ChunkID, *chunkSentences](size)
	return &cached{model: model, cache: cache}
}

func (s *cached) sentences(c corpus.Chunk) *chunkSentences {
	if cs, ok := s.cache.Get(c.ID); ok {
		return cs
	}
	cs := splitAndVectorize(s.model, c.Body)
	s.cache.Add(c.ID, cs)
	return cs
}

// precomputed holds every chunk, vectorized once when the engine is built.
type precomputed struct {
	byID []*chunkSentences
}

func newPrecomputed(model *vectorspace.Model, chunks []corpus.Chunk) *precomputed {
	p := &precomputed{byID: make([]*chunkSentences, len(chunks))}
	for _, c := range chunks {
		p.byID[c.ID] = splitAndVectorize(model, c.Body)
	}
	return p
}

func (s *precomputed) sentences(c corpus.Chunk) *chunkSentences {
	return s.byID[c.ID]
}

// bestSentence returns the index of the sentence with the highest inner
// product with q. The first maximum wins.
func bestSentence(q vectorspace.Vector, vectors []vectorspace.Vector) int {
	best, bestScore := 0, vectorspace.Dot(q, vectors[0])
	for i := 1; i < len(vectors); i++ {
		if score := vectorspace.Dot(q, vectors[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// contextWindow joins sentences[center-window : center+window+1], clipped
// to the slice bounds.
func contextWindow(sentences []string, center, window int) string {
	lo := center - window
	if lo < 0 {
		lo = 0
	}
	hi := center + window + 1
	if hi > len(sentences) {
		hi = len(sentences)
	}
	return strings.Join(sentences[lo:hi], " ")
}
