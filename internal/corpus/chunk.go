// Package corpus holds the ordered, append-only chunk sequence that the
// vector space and similarity index are built over.
package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// ChunkID identifies a chunk. IDs are assigned in append order starting at
// zero and never change once assigned.
type ChunkID uint64

// Chunk is a unit of retrieval: a header and the body text under it.
type Chunk struct {
	ID          ChunkID `json:"id"`
	Header      string  `json:"header"`
	Body        string  `json:"body"`
	Fingerprint string  `json:"fingerprint"`
}

// Fingerprint returns the hex sha256 of header and body.
func Fingerprint(header, body string) string {
	h := sha256.New()
	h.Write([]byte(header))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

// Corpus is an append-only chunk sequence. It is not safe for concurrent
// mutation; build it on one goroutine and share it read-only afterwards.
type Corpus struct {
	chunks []Chunk
}

// New returns an empty corpus.
func New() *Corpus {
	return &Corpus{}
}

// FromChunks rebuilds a corpus from stored chunks. Chunks are ordered by ID
// and must form the sequence 0..n-1 with matching fingerprints.
func FromChunks(chunks []Chunk) (*Corpus, error) {
	sorted := append([]Chunk(nil), chunks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for i, c := range sorted {
		if c.ID != ChunkID(i) {
			return nil, qaerrors.InconsistentSnapshotError(
				fmt.Sprintf("chunk sequence has a gap: position %d holds chunk %d", i, c.ID))
		}
		if c.Fingerprint != Fingerprint(c.Header, c.Body) {
			return nil, qaerrors.InconsistentSnapshotError(
				fmt.Sprintf("chunk %d does not match its fingerprint", c.ID))
		}
	}
	return &Corpus{chunks: sorted}, nil
}

// Append adds a chunk and returns its ID.
func (c *Corpus) Append(header, body string) ChunkID {
	id := ChunkID(len(c.chunks))
	c.chunks = append(c.chunks, Chunk{
		ID:          id,
		Header:      header,
		Body:        body,
		Fingerprint: Fingerprint(header, body),
	})
	return id
}

// Len returns the number of chunks.
func (c *Corpus) Len() int {
	return len(c.chunks)
}

// Get returns the chunk with the given ID.
func (c *Corpus) Get(id ChunkID) (Chunk, bool) {
	if uint64(id) >= uint64(len(c.chunks)) {
		return Chunk{}, false
	}
	return c.chunks[id], true
}

// Chunks returns a copy of the chunk sequence in ID order.
func (c *Corpus) Chunks() []Chunk {
	return append([]Chunk(nil), c.chunks...)
}

// IDs returns every chunk ID in order.
func (c *Corpus) IDs() []ChunkID {
	ids := make([]ChunkID, len(c.chunks))
	for i := range c.chunks {
		ids[i] = c.chunks[i].ID
	}
	return ids
}

// Bodies returns every chunk body in ID order.
func (c *Corpus) Bodies() []string {
	out := make([]string, len(c.chunks))
	for i := range c.chunks {
		out[i] = c.chunks[i].Body
	}
	return out
}

// Digest returns a hex sha256 over every chunk fingerprint in order. Two
// corpora with equal digests hold the same chunks in the same order.
func (c *Corpus) Digest() string {
	h := sha256.New()
	for i := range c.chunks {
		h.Write([]byte(c.chunks[i].Fingerprint))
	}
	return hex.EncodeToString(h.Sum(nil))
}
