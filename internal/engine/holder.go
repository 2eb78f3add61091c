package engine

import (
	"context"
	"sync/atomic"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// Holder publishes the current engine to concurrent readers. Swap replaces
// the whole engine at once; in-flight queries finish on the engine they
// started with.
type Holder struct {
	current atomic.Pointer[Engine]
}

// NewHolder returns a holder serving e.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	h.current.Store(e)
	return h
}

// Load returns the current engine, or nil before the first Swap.
func (h *Holder) Load() *Engine {
	return h.current.Load()
}

// Swap installs e and returns the engine it replaced.
func (h *Holder) Swap(e *Engine) *Engine {
	return h.current.Swap(e)
}

// AnswerContext answers with the current engine.
func (h *Holder) AnswerContext(ctx context.Context, query string, k int) ([]SearchResult, error) {
	e := h.current.Load()
	if e == nil {
		return nil, qaerrors.New(qaerrors.ErrCodeSnapshotNotFound, "no snapshot loaded", nil)
	}
	return e.AnswerContext(ctx, query, k)
}
