package cmd

import (
	"strings"

	"github.com/Aman-CERP/docqa/internal/config"
	"github.com/Aman-CERP/docqa/internal/engine"
	"github.com/Aman-CERP/docqa/internal/ingest"
	"github.com/Aman-CERP/docqa/internal/snapshot"
	"github.com/Aman-CERP/docqa/internal/store"
	"github.com/Aman-CERP/docqa/internal/vectorspace"
)

// The helpers below translate the file/env configuration into the option
// structs of each package. config.Load has already validated the values.

func engineOptions(cfg *config.Config, recorder engine.Recorder) engine.Options {
	return engine.Options{
		Window:              cfg.Retrieval.Window,
		EmptySentences:      engine.EmptySentencePolicy(strings.ToLower(cfg.Retrieval.EmptySentences)),
		SentenceCacheSize:   cfg.Retrieval.SentenceCacheSize,
		PrecomputeSentences: cfg.Retrieval.PrecomputeSentences,
		Recorder:            recorder,
	}
}

func indexConfig(cfg *config.Config) store.IndexConfig {
	return store.IndexConfig{
		Backend:  store.Backend(strings.ToLower(cfg.Index.Backend)),
		M:        cfg.Index.M,
		EfSearch: cfg.Index.EfSearch,
	}
}

func snapshotOptions(cfg *config.Config) snapshot.Options {
	return snapshot.Options{
		Analyzer: vectorspace.Options{Stemming: cfg.Analyzer.Stemming},
		Index:    indexConfig(cfg),
	}
}

// loadOptions keeps the index backend recorded in the snapshot; the backend
// is chosen at build time.
func loadOptions(cfg *config.Config) snapshot.LoadOptions {
	return snapshot.LoadOptions{LockTimeout: cfg.Snapshot.LockTimeout}
}

func ingestOptions(cfg *config.Config) ingest.Options {
	opts := ingest.DefaultOptions()
	opts.MaxChunkChars = cfg.Ingest.MaxChunkChars
	opts.FigureMarker = cfg.Ingest.FigureMarker
	opts.HeaderMaxWords = cfg.Ingest.HeaderMaxWords
	opts.HeaderPrefixes = append([]string(nil), cfg.Ingest.HeaderPrefixes...)
	opts.Exclude = append([]string(nil), cfg.Ingest.Exclude...)
	return opts
}
