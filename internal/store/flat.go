package store

import (
	"fmt"
	"sort"

	"github.com/Aman-CERP/docqa/internal/corpus"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/vectorspace"
)

// FlatIndex scores the query against every stored vector. It is exact and
// fully deterministic.
type FlatIndex struct {
	dim       int
	ids       []corpus.ChunkID
	vectors   []vectorspace.Vector // unit length, or zero
	positions map[corpus.ChunkID]int
}

// Verify interface implementation
var _ Index = (*FlatIndex)(nil)

// NewFlatIndex normalizes and stores vectors in insertion order.
func NewFlatIndex(dim int, ids []corpus.ChunkID, vectors []vectorspace.Vector) (*FlatIndex, error) {
	if len(ids) != len(vectors) {
		return nil, qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("index build got %d ids for %d vectors", len(ids), len(vectors)))
	}

	idx := &FlatIndex{
		dim:       dim,
		ids:       make([]corpus.ChunkID, len(ids)),
		vectors:   make([]vectorspace.Vector, len(vectors)),
		positions: make(map[corpus.ChunkID]int, len(ids)),
	}
	for i, v := range vectors {
		if v.Dim != dim {
			return nil, qaerrors.DimensionMismatchError(dim, v.Dim).
				WithDetail("chunk_id", fmt.Sprint(ids[i]))
		}
		if _, dup := idx.positions[ids[i]]; dup {
			return nil, qaerrors.InconsistentSnapshotError(fmt.Sprintf("chunk %d indexed twice", ids[i]))
		}
		idx.ids[i] = ids[i]
		idx.vectors[i] = v.Normalized()
		idx.positions[ids[i]] = i
	}
	return idx, nil
}

// Search implements Index.
func (f *FlatIndex) Search(query vectorspace.Vector, k int) ([]Hit, error) {
	if query.Dim != f.dim {
		return nil, qaerrors.DimensionMismatchError(f.dim, query.Dim)
	}
	if k <= 0 || len(f.ids) == 0 {
		return []Hit{}, nil
	}

	q := query.Normalized()
	hits := make([]Hit, len(f.ids))
	for i, v := range f.vectors {
		hits[i] = Hit{ID: f.ids[i], Score: vectorspace.Dot(q, v)}
	}
	sortHits(hits, f.positions)

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// score returns the exact similarity of an already-normalized query to id.
func (f *FlatIndex) score(q vectorspace.Vector, id corpus.ChunkID) (float64, bool) {
	pos, ok := f.positions[id]
	if !ok {
		return 0, false
	}
	return vectorspace.Dot(q, f.vectors[pos]), true
}

// Dim implements Index.
func (f *FlatIndex) Dim() int { return f.dim }

// Len implements Index.
func (f *FlatIndex) Len() int { return len(f.ids) }

// Backend implements Index.
func (f *FlatIndex) Backend() Backend { return BackendFlat }

// sortHits orders hits by descending score, then by insertion position.
func sortHits(hits []Hit, positions map[corpus.ChunkID]int) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return positions[hits[i].ID] < positions[hits[j].ID]
	})
}
