package uow

import (
	"context"
	"sync"
)

// Hooks is embedded by unit implementations to collect post-transaction
// callbacks. Each set runs at most once.
type Hooks struct {
	mu         sync.Mutex
	onCommit   []func(ctx context.Context)
	onRollback []func(ctx context.Context)
}

func (h *Hooks) AfterCommit(fn func(ctx context.Context)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.onCommit = append(h.onCommit, fn)
	h.mu.Unlock()
}

func (h *Hooks) AfterRollback(fn func(ctx context.Context)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.onRollback = append(h.onRollback, fn)
	h.mu.Unlock()
}

// RunCommitted runs commit hooks on a context detached from the unit, so
// hooks never observe the finished transaction.
func (h *Hooks) RunCommitted(ctx context.Context) {
	h.run(ctx, true)
}

func (h *Hooks) RunRolledBack(ctx context.Context) {
	h.run(ctx, false)
}

func (h *Hooks) run(ctx context.Context, committed bool) {
	h.mu.Lock()
	fns := h.onRollback
	if committed {
		fns = h.onCommit
	}
	h.onCommit, h.onRollback = nil, nil
	h.mu.Unlock()

	ctx = Detach(ctx)
	for _, fn := range fns {
		fn(ctx)
	}
}
