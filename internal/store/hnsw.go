package store

import (
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/Aman-CERP/docqa/internal/corpus"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/vectorspace"
)

const (
	// maxGraphFloats bounds the dense copies held by the graph
	// (chunks x vocabulary float32s, 256 MiB). Larger corpora are served
	// from the postings alone.
	maxGraphFloats = 1 << 26

	// exactBudgetFactor times max(k, ef_search) is the largest candidate
	// set that is scored exactly without consulting the graph.
	exactBudgetFactor = 4
)

// HNSWIndex implements Index using the coder/hnsw pure Go graph plus an
// inverted index over vocabulary columns.
//
// TF-IDF vectors are sparse, so most chunk pairs are orthogonal and the
// graph alone cannot navigate to a query's neighbours. The postings list
// every chunk sharing a term with the query; when that set is small it is
// scored exactly. The graph is only consulted for broad queries, and its
// answer is replaced by the exact ranking when it yields fewer than k
// chunks with a positive score. Every returned score is exact.
type HNSWIndex struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[uint64]
	flat     *FlatIndex
	postings [][]int32 // column -> positions with a non-zero weight
	efSearch int
}

// Verify interface implementation
var _ Index = (*HNSWIndex)(nil)

// NewHNSWIndex builds the postings and graph over the vectors held by flat.
func NewHNSWIndex(flat *FlatIndex, cfg IndexConfig) (*HNSWIndex, error) {
	if cfg.M == 0 {
		cfg.M = 16 // coder/hnsw default recommendation
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}
	if cfg.M < 2 || cfg.EfSearch < 1 {
		return nil, qaerrors.ConfigError("hnsw requires m >= 2 and ef_search >= 1", nil)
	}

	postings := make([][]int32, flat.dim)
	for pos, v := range flat.vectors {
		for i, col := range v.Indices {
			if v.Values[i] != 0 {
				postings[col] = append(postings[col], int32(pos))
			}
		}
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25 // default level generation factor (1/ln(M))

	if int64(len(flat.vectors))*int64(flat.dim) <= maxGraphFloats {
		for i, v := range flat.vectors {
			// Cosine distance is undefined for the zero vector.
			if v.IsZero() {
				continue
			}
			graph.Add(hnsw.MakeNode(uint64(flat.ids[i]), v.Dense()))
		}
	}

	return &HNSWIndex{graph: graph, flat: flat, postings: postings, efSearch: cfg.EfSearch}, nil
}

// Search implements Index.
func (h *HNSWIndex) Search(query vectorspace.Vector, k int) ([]Hit, error) {
	if query.Dim != h.flat.dim {
		return nil, qaerrors.DimensionMismatchError(h.flat.dim, query.Dim)
	}
	if k <= 0 || h.flat.Len() == 0 {
		return []Hit{}, nil
	}

	q := query.Normalized()

	h.mu.RLock()
	defer h.mu.RUnlock()

	// Every chunk requested, or nothing to rank by.
	if k >= h.flat.Len() || q.IsZero() {
		return h.flat.Search(q, k)
	}

	candidates := h.candidates(q)
	ef := max(k, h.efSearch)
	if len(candidates) <= exactBudgetFactor*ef || h.graph.Len() < ef {
		return h.rank(q, candidates, k), nil
	}

	nodes := h.graph.Search(q.Dense(), ef)
	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		id := corpus.ChunkID(node.Key)
		if score, ok := h.flat.score(q, id); ok && score > 0 {
			hits = append(hits, Hit{ID: id, Score: score})
		}
	}
	if len(hits) < k {
		return h.rank(q, candidates, k), nil
	}

	sortHits(hits, h.flat.positions)
	return hits[:k], nil
}

// candidates returns the positions of chunks sharing a term with q, in
// insertion order.
func (h *HNSWIndex) candidates(q vectorspace.Vector) []int32 {
	seen := make(map[int32]struct{})
	var out []int32
	for i, col := range q.Indices {
		if q.Values[i] == 0 {
			continue
		}
		for _, pos := range h.postings[col] {
			if _, dup := seen[pos]; !dup {
				seen[pos] = struct{}{}
				out = append(out, pos)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// rank scores candidates exactly. Chunks outside the candidate set score
// zero, so a short list is padded with them in insertion order, which is
// where the flat scan would place them.
func (h *HNSWIndex) rank(q vectorspace.Vector, candidates []int32, k int) []Hit {
	hits := make([]Hit, 0, min(k, len(candidates)))
	positive := make(map[int32]struct{}, len(candidates))
	for _, pos := range candidates {
		score := vectorspace.Dot(q, h.flat.vectors[pos])
		if score > 0 {
			hits = append(hits, Hit{ID: h.flat.ids[pos], Score: score})
			positive[pos] = struct{}{}
		}
	}
	sortHits(hits, h.flat.positions)
	if len(hits) >= k {
		return hits[:k]
	}

	for pos := range h.flat.ids {
		if len(hits) == k {
			break
		}
		if _, ok := positive[int32(pos)]; ok {
			continue
		}
		hits = append(hits, Hit{ID: h.flat.ids[pos], Score: vectorspace.Dot(q, h.flat.vectors[pos])})
	}
	return hits
}

// Dim implements Index.
func (h *HNSWIndex) Dim() int { return h.flat.dim }

// Len implements Index.
func (h *HNSWIndex) Len() int { return h.flat.Len() }

// Backend implements Index.
func (h *HNSWIndex) Backend() Backend { return BackendHNSW }

// GraphLen returns the number of graph nodes. Zero vectors are not in the
// graph, so this can be below Len.
func (h *HNSWIndex) GraphLen() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph.Len()
}
