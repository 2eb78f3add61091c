// Package store provides the similarity index over chunk vectors and the
// SQLite persistence of retrieval snapshots.
package store

import (
	"fmt"

	"github.com/Aman-CERP/docqa/internal/corpus"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/vectorspace"
)

// Backend names a similarity index implementation.
type Backend string

const (
	// BackendFlat is the exact brute-force inner-product index.
	BackendFlat Backend = "flat"
	// BackendHNSW is the approximate graph index.
	BackendHNSW Backend = "hnsw"
)

// ParseBackend validates a backend name. Empty selects flat.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendFlat:
		return BackendFlat, nil
	case BackendHNSW:
		return BackendHNSW, nil
	default:
		return "", qaerrors.ConfigError(fmt.Sprintf("unknown index backend %q (supported: flat, hnsw)", s), nil)
	}
}

// Hit is one search result: a chunk and its cosine similarity to the query.
type Hit struct {
	ID    corpus.ChunkID
	Score float64
}

// Index is a read-only nearest-neighbour index over L2-normalized chunk
// vectors. Implementations are safe for concurrent Search calls.
type Index interface {
	// Search returns up to k hits in non-increasing score order. Equal
	// scores keep insertion order. k larger than Len returns every chunk;
	// k <= 0 returns none. A query of the wrong dimension fails with
	// DimensionMismatch.
	Search(query vectorspace.Vector, k int) ([]Hit, error)

	// Dim returns the vector dimension of the index.
	Dim() int

	// Len returns the number of indexed chunks.
	Len() int

	// Backend names the implementation.
	Backend() Backend
}

// IndexConfig configures index construction.
type IndexConfig struct {
	// Backend selects the implementation. Default: flat.
	Backend Backend

	// M is the max neighbours per HNSW node. Default: 16.
	M int

	// EfSearch is the HNSW candidate list size during search. Default: 64.
	EfSearch int
}

// DefaultIndexConfig returns the exact flat configuration.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		Backend:  BackendFlat,
		M:        16,
		EfSearch: 64,
	}
}

// BuildIndex builds the index selected by cfg. ids and vectors are aligned
// by position and every vector must have dimension dim.
func BuildIndex(dim int, ids []corpus.ChunkID, vectors []vectorspace.Vector, cfg IndexConfig) (Index, error) {
	flat, err := NewFlatIndex(dim, ids, vectors)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", BackendFlat:
		return flat, nil
	case BackendHNSW:
		return NewHNSWIndex(flat, cfg)
	default:
		return nil, qaerrors.ConfigError(fmt.Sprintf("unknown index backend %q", cfg.Backend), nil)
	}
}
