package mcp

import (
	"time"

	"github.com/Aman-CERP/docqa/internal/engine"
	"github.com/Aman-CERP/docqa/internal/snapshot"
)

// Tool names.
const (
	ToolAnswerContext = "answer_context"
	ToolSnapshotInfo  = "snapshot_info"
)

// MaxK bounds the number of chunks a single tool call may request.
const MaxK = 50

// AnswerContextInput defines the input schema for the answer_context tool.
type AnswerContextInput struct {
	Query string `json:"query" jsonschema:"the natural-language question"`
	K     int    `json:"k,omitempty" jsonschema:"number of chunks to search, default from configuration (5)"`
}

// AnswerContextOutput defines the output schema for the answer_context tool.
type AnswerContextOutput struct {
	Results []ResultOutput `json:"results" jsonschema:"ranked context snippets, duplicates removed"`
}

// ResultOutput is one context snippet.
type ResultOutput struct {
	Header     string  `json:"header" jsonschema:"header of the source chunk"`
	Context    string  `json:"context" jsonschema:"best-matching sentence with its neighbours"`
	Similarity float64 `json:"similarity" jsonschema:"cosine similarity between query and chunk"`
	ChunkID    uint64  `json:"chunk_id" jsonschema:"position of the chunk in the corpus"`
}

func toResultOutputs(results []engine.SearchResult) []ResultOutput {
	out := make([]ResultOutput, 0, len(results))
	for _, r := range results {
		out = append(out, ResultOutput{
			Header:     r.Header,
			Context:    r.Context,
			Similarity: r.Similarity,
			ChunkID:    uint64(r.ChunkID),
		})
	}
	return out
}

// SnapshotInfoInput defines the input schema for the snapshot_info tool (no parameters).
type SnapshotInfoInput struct{}

// SnapshotInfoOutput defines the output schema for the snapshot_info tool.
type SnapshotInfoOutput struct {
	Chunks       int    `json:"chunks"`
	Vocabulary   int    `json:"vocabulary"`
	Backend      string `json:"backend"`
	Stemming     bool   `json:"stemming"`
	CorpusDigest string `json:"corpus_digest"`
	CreatedAt    string `json:"created_at"`
	Version      string `json:"version"`

	Queries *QueryMetricsSummary `json:"queries,omitempty"` // Present when telemetry is enabled
}

func toSnapshotInfoOutput(info snapshot.Info) SnapshotInfoOutput {
	return SnapshotInfoOutput{
		Chunks:       info.Chunks,
		Vocabulary:   info.Vocabulary,
		Backend:      info.Backend,
		Stemming:     info.Stemming,
		CorpusDigest: info.CorpusDigest,
		CreatedAt:    info.CreatedAt.Format(time.RFC3339),
		Version:      info.Version,
	}
}
