package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/docqa/internal/engine"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/snapshot"
)

// Reloader loads the snapshot at Path and swaps a new engine into Holder.
// Queries in flight finish on the engine they started with.
type Reloader struct {
	Holder *engine.Holder
	Path   string
	Load   snapshot.LoadOptions
	Engine engine.Options

	// Retry applies to retryable load errors such as a held lock. The zero
	// value selects qaerrors.DefaultRetryConfig.
	Retry qaerrors.RetryConfig
}

// Reload implements ChangeFunc. On error the current engine stays in place.
func (r *Reloader) Reload(ctx context.Context) error {
	start := time.Now()

	retry := r.Retry
	if retry == (qaerrors.RetryConfig{}) {
		retry = qaerrors.DefaultRetryConfig()
	}

	snap, err := qaerrors.RetryWithResult(ctx, retry, func() (*snapshot.Snapshot, error) {
		return snapshot.Load(ctx, r.Path, r.Load)
	})
	if err != nil {
		return err
	}

	eng, err := engine.New(snap, r.Engine)
	if err != nil {
		return err
	}
	r.Holder.Swap(eng)

	info := snap.Info()
	slog.Info("snapshot_reloaded",
		slog.String("path", r.Path),
		slog.Int("chunks", info.Chunks),
		slog.String("corpus_digest", info.CorpusDigest),
		slog.Duration("duration", time.Since(start)))
	return nil
}
