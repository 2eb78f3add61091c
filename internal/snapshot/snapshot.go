// Package snapshot bundles the fitted vector space model, the similarity
// index and the chunk sequence into one immutable value, and persists it.
//
// The three artifacts are only meaningful together: column numbers come
// from the model, vectors are keyed by chunk ID, and the index is built
// over those vectors. Build and Load both verify that alignment before a
// Snapshot is handed out.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/docqa/internal/corpus"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/normalize"
	"github.com/Aman-CERP/docqa/internal/store"
	"github.com/Aman-CERP/docqa/internal/vectorspace"
	"github.com/Aman-CERP/docqa/pkg/version"
)

// DefaultLockTimeout bounds how long Save and Load wait for the lock.
const DefaultLockTimeout = 10 * time.Second

// Options configure Build.
type Options struct {
	Analyzer vectorspace.Options
	Index    store.IndexConfig
}

// DefaultOptions returns stemming on and the exact flat index.
func DefaultOptions() Options {
	return Options{
		Analyzer: vectorspace.DefaultOptions(),
		Index:    store.DefaultIndexConfig(),
	}
}

// Snapshot is an immutable retrieval snapshot. It is safe for concurrent
// use by any number of readers.
type Snapshot struct {
	corpus    *corpus.Corpus
	model     *vectorspace.Model
	vectors   []vectorspace.Vector // by ChunkID, raw TF-IDF
	index     store.Index
	indexCfg  store.IndexConfig
	createdAt time.Time
	version   string
}

// Build fits the model over the normalized chunk bodies, vectorizes every
// chunk and builds the index.
func Build(c *corpus.Corpus, opts Options) (*Snapshot, error) {
	if c == nil || c.Len() == 0 {
		return nil, qaerrors.EmptyCorpusError()
	}

	texts := c.Bodies()
	for i := range texts {
		texts[i] = normalize.Normalize(texts[i])
	}

	model, err := vectorspace.Fit(texts, opts.Analyzer)
	if err != nil {
		return nil, err
	}

	snap, err := assemble(c, model, model.TransformAll(texts), opts.Index)
	if err != nil {
		return nil, err
	}
	snap.createdAt = time.Now().UTC().Truncate(time.Second)
	snap.version = version.Short()

	slog.Info("snapshot_built",
		slog.Int("chunks", c.Len()),
		slog.Int("vocabulary", model.Dim()),
		slog.String("backend", string(snap.index.Backend())))
	return snap, nil
}

// assemble checks that the artifacts line up and builds the index.
func assemble(c *corpus.Corpus, model *vectorspace.Model, vectors []vectorspace.Vector, cfg store.IndexConfig) (*Snapshot, error) {
	if c.Len() == 0 {
		return nil, qaerrors.EmptyCorpusError()
	}
	if len(vectors) != c.Len() {
		return nil, qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("%d chunks but %d vectors", c.Len(), len(vectors)))
	}
	if model.DocCount() != c.Len() {
		return nil, qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("model was fitted on %d documents but the corpus holds %d chunks", model.DocCount(), c.Len()))
	}
	for i, v := range vectors {
		if v.Dim != model.Dim() {
			return nil, qaerrors.InconsistentSnapshotError(
				fmt.Sprintf("vector of chunk %d has dimension %d, vocabulary has %d terms", i, v.Dim, model.Dim()))
		}
	}

	idx, err := store.BuildIndex(model.Dim(), c.IDs(), vectors, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Backend == "" {
		cfg.Backend = store.BackendFlat
	}
	return &Snapshot{
		corpus:   c,
		model:    model,
		vectors:  vectors,
		index:    idx,
		indexCfg: cfg,
	}, nil
}

// Corpus returns the chunk sequence.
func (s *Snapshot) Corpus() *corpus.Corpus { return s.corpus }

// Model returns the fitted vector space model.
func (s *Snapshot) Model() *vectorspace.Model { return s.model }

// Index returns the similarity index.
func (s *Snapshot) Index() store.Index { return s.index }

// WithIndex returns a copy of s served by idx. idx must cover every chunk.
// Its dimension is not checked here; a mismatch surfaces on the first
// query as DimensionMismatch.
func (s *Snapshot) WithIndex(idx store.Index) (*Snapshot, error) {
	if idx.Len() != s.corpus.Len() {
		return nil, qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("index holds %d chunks, corpus holds %d", idx.Len(), s.corpus.Len()))
	}
	cp := *s
	cp.index = idx
	cp.indexCfg.Backend = idx.Backend()
	return &cp, nil
}

// Chunk returns the chunk with the given ID.
func (s *Snapshot) Chunk(id corpus.ChunkID) (corpus.Chunk, bool) {
	return s.corpus.Get(id)
}

// Vector returns the raw TF-IDF vector of a chunk.
func (s *Snapshot) Vector(id corpus.ChunkID) (vectorspace.Vector, bool) {
	if uint64(id) >= uint64(len(s.vectors)) {
		return vectorspace.Vector{}, false
	}
	return s.vectors[id], true
}

// Info summarizes a snapshot for `docqa info` and the snapshot_info tool.
type Info struct {
	Chunks       int       `json:"chunks"`
	Vocabulary   int       `json:"vocabulary"`
	Backend      string    `json:"backend"`
	Stemming     bool      `json:"stemming"`
	CorpusDigest string    `json:"corpus_digest"`
	CreatedAt    time.Time `json:"created_at"`
	Version      string    `json:"version"`
}

// Info returns the snapshot summary.
func (s *Snapshot) Info() Info {
	return Info{
		Chunks:       s.corpus.Len(),
		Vocabulary:   s.model.Dim(),
		Backend:      string(s.index.Backend()),
		Stemming:     s.model.Options().Stemming,
		CorpusDigest: s.corpus.Digest(),
		CreatedAt:    s.createdAt,
		Version:      s.version,
	}
}

// Save persists the snapshot to path under the exclusive lock.
func Save(ctx context.Context, path string, s *Snapshot, lockTimeout time.Duration) error {
	lock := NewFileLock(path)
	if err := lock.Lock(ctx, lockTimeout); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	rows := make([]store.VectorRow, len(s.vectors))
	for i, v := range s.vectors {
		rows[i] = store.VectorRow{ID: corpus.ChunkID(i), Vector: v}
	}

	rec := &store.SnapshotRecord{
		Meta: store.SnapshotMeta{
			ChunkCount:   s.corpus.Len(),
			VocabSize:    s.model.Dim(),
			DocCount:     s.model.DocCount(),
			Index:        s.indexCfg,
			Analyzer:     s.model.Options(),
			CorpusDigest: s.corpus.Digest(),
			CreatedAt:    s.createdAt,
			ToolVersion:  s.version,
		},
		Chunks:  s.corpus.Chunks(),
		Terms:   s.model.Vocabulary(),
		IDF:     s.model.IDF(),
		Vectors: rows,
	}
	if err := store.WriteSnapshot(ctx, path, rec); err != nil {
		return err
	}

	slog.Info("snapshot_saved",
		slog.String("path", path),
		slog.Int("chunks", rec.Meta.ChunkCount))
	return nil
}

// LoadOptions configure Load.
type LoadOptions struct {
	// LockTimeout bounds the wait for a running writer. Default: 10s.
	LockTimeout time.Duration

	// Index overrides the persisted index configuration when its Backend
	// is set.
	Index store.IndexConfig
}

// Load reads and verifies the snapshot at path under the shared lock.
// The index is rebuilt from the stored vectors.
func Load(ctx context.Context, path string, opts LoadOptions) (*Snapshot, error) {
	if opts.LockTimeout == 0 {
		opts.LockTimeout = DefaultLockTimeout
	}

	lock := NewFileLock(path)
	if err := lock.RLock(ctx, opts.LockTimeout); err != nil {
		return nil, err
	}
	rec, err := store.ReadSnapshot(ctx, path)
	_ = lock.Unlock()
	if err != nil {
		return nil, err
	}

	c, err := corpus.FromChunks(rec.Chunks)
	if err != nil {
		return nil, err
	}
	if c.Digest() != rec.Meta.CorpusDigest {
		return nil, qaerrors.InconsistentSnapshotError("chunks do not match the recorded corpus fingerprint")
	}

	model, err := vectorspace.Restore(rec.Terms, rec.IDF, rec.Meta.DocCount, rec.Meta.Analyzer)
	if err != nil {
		return nil, err
	}

	vectors := make([]vectorspace.Vector, len(rec.Vectors))
	for i, row := range rec.Vectors {
		if row.ID != corpus.ChunkID(i) {
			return nil, qaerrors.InconsistentSnapshotError(
				fmt.Sprintf("vector at position %d belongs to chunk %d", i, row.ID))
		}
		vectors[i] = row.Vector
	}

	cfg := rec.Meta.Index
	if opts.Index.Backend != "" {
		cfg = opts.Index
	}

	snap, err := assemble(c, model, vectors, cfg)
	if err != nil {
		return nil, err
	}
	snap.createdAt = rec.Meta.CreatedAt
	snap.version = rec.Meta.ToolVersion

	slog.Info("snapshot_loaded",
		slog.String("path", path),
		slog.Int("chunks", c.Len()),
		slog.Int("vocabulary", model.Dim()),
		slog.String("backend", string(snap.index.Backend())))
	return snap, nil
}
