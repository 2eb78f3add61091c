// Package engine answers queries against a retrieval snapshot.
//
// For each of the top-k chunks it localizes the single best-matching
// sentence, widens it to a small window of neighbouring sentences, and
// drops results whose context text was already returned.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/docqa/internal/corpus"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/normalize"
	"github.com/Aman-CERP/docqa/internal/snapshot"
	"github.com/Aman-CERP/docqa/internal/telemetry"
)

// DefaultTopK is the number of chunks retrieved when the caller has no
// preference.
const DefaultTopK = 5

// EmptySentencePolicy decides what happens to a retrieved chunk whose body
// has no sentences.
type EmptySentencePolicy string

const (
	// EmptySentencesInclude returns the chunk with an empty context.
	EmptySentencesInclude EmptySentencePolicy = "include"
	// EmptySentencesSkip drops the chunk from the results.
	EmptySentencesSkip EmptySentencePolicy = "skip"
)

// ParseEmptySentencePolicy validates a policy name. Empty selects include.
func ParseEmptySentencePolicy(s string) (EmptySentencePolicy, error) {
	switch EmptySentencePolicy(s) {
	case "", EmptySentencesInclude:
		return EmptySentencesInclude, nil
	case EmptySentencesSkip:
		return EmptySentencesSkip, nil
	default:
		return "", qaerrors.ConfigError(fmt.Sprintf("unknown empty sentence policy %q (supported: include, skip)", s), nil)
	}
}

// Recorder receives one event per answered query.
type Recorder interface {
	Record(event telemetry.QueryEvent)
}

// Options configure an Engine.
type Options struct {
	// Window is the number of sentences kept on each side of the best
	// sentence. Default: 1.
	Window int

	// EmptySentences is the policy for chunks without sentences.
	EmptySentences EmptySentencePolicy

	// SentenceCacheSize bounds the LRU of vectorized chunk sentences.
	// Zero vectorizes on every query.
	SentenceCacheSize int

	// PrecomputeSentences vectorizes every chunk's sentences in New. It
	// takes precedence over SentenceCacheSize.
	PrecomputeSentences bool

	// Recorder, when set, is told about every answered query.
	Recorder Recorder
}

// DefaultOptions returns a window of 1, the include policy and a 256-chunk
// sentence cache.
func DefaultOptions() Options {
	return Options{
		Window:            1,
		EmptySentences:    EmptySentencesInclude,
		SentenceCacheSize: 256,
	}
}

// SearchResult is one ranked context snippet.
type SearchResult struct {
	Header     string         `json:"header"`
	Context    string         `json:"context"`
	Similarity float64        `json:"similarity"`
	ChunkID    corpus.ChunkID `json:"chunk_id"`
}

// Engine answers queries against one immutable snapshot. It is safe for
// concurrent use.
type Engine struct {
	snap      *snapshot.Snapshot
	opts      Options
	sentences sentenceSource
}

// New returns an engine over snap.
func New(snap *snapshot.Snapshot, opts Options) (*Engine, error) {
	if snap == nil {
		return nil, qaerrors.InternalError("engine requires a snapshot", nil)
	}
	if opts.Window < 0 {
		return nil, qaerrors.ConfigError(fmt.Sprintf("window must be >= 0, got %d", opts.Window), nil)
	}
	policy, err := ParseEmptySentencePolicy(string(opts.EmptySentences))
	if err != nil {
		return nil, err
	}
	opts.EmptySentences = policy

	e := &Engine{snap: snap, opts: opts}
	switch {
	case opts.PrecomputeSentences:
		e.sentences = newPrecomputed(snap.Model(), snap.Corpus().Chunks())
	case opts.SentenceCacheSize > 0:
		e.sentences = newCached(snap.Model(), opts.SentenceCacheSize)
	default:
		e.sentences = onDemand{model: snap.Model()}
	}
	return e, nil
}

// Snapshot returns the snapshot the engine serves.
func (e *Engine) Snapshot() *snapshot.Snapshot {
	return e.snap
}

// AnswerContext returns up to k context snippets for query, best first.
// k <= 0 and queries with no known terms are not errors; they may yield
// an empty slice. Index failures such as a dimension mismatch abort the
// query. ctx is checked between chunks.
func (e *Engine) AnswerContext(ctx context.Context, query string, k int) ([]SearchResult, error) {
	start := time.Now()
	results, err := e.answer(ctx, query, k)
	if err != nil {
		slog.Warn("query_failed",
			slog.Int("k", k),
			slog.String("code", qaerrors.GetCode(err)),
			slog.String("error", err.Error()))
		return nil, err
	}

	latency := time.Since(start)
	slog.Info("query_answered",
		slog.Int("k", k),
		slog.Int("results", len(results)),
		slog.Duration("duration", latency))
	if e.opts.Recorder != nil {
		e.opts.Recorder.Record(telemetry.QueryEvent{
			Query:       query,
			ResultCount: len(results),
			Latency:     latency,
			Timestamp:   start,
		})
	}
	return results, nil
}

func (e *Engine) answer(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return []SearchResult{}, nil
	}

	q := e.snap.Model().Transform(normalize.Normalize(query)).Normalized()

	hits, err := e.snap.Index().Search(q, k)
	if err != nil {
		if qaerrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, qaerrors.New(qaerrors.ErrCodeSearchFailed, "index search failed", err)
	}

	results := make([]SearchResult, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, ok := e.snap.Chunk(hit.ID)
		if !ok {
			return nil, qaerrors.InconsistentSnapshotError(
				fmt.Sprintf("index returned chunk %d which is not in the corpus", hit.ID))
		}

		var text string
		cs := e.sentences.sentences(chunk)
		if len(cs.text) == 0 {
			slog.Debug("empty_sentence_set",
				slog.Uint64("chunk_id", uint64(chunk.ID)),
				slog.String("policy", string(e.opts.EmptySentences)))
			if e.opts.EmptySentences == EmptySentencesSkip {
				continue
			}
		} else {
			best := bestSentence(q, cs.vectors)
			text = contextWindow(cs.text, best, e.opts.Window)
		}

		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		results = append(results, SearchResult{
			Header:     chunk.Header,
			Context:    text,
			Similarity: hit.Score,
			ChunkID:    chunk.ID,
		})
	}

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
