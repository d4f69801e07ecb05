package support

import (
	"context"
	"time"

	"staybook/internal/app/uow"
)

// ReadUnit returns the unit already in ctx or begins a read-only one. The
// returned release func must be called when the unit was begun here; it is a
// no-op otherwise.
func ReadUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, func() {}, nil
	}
	unit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, func() {}, err
	}
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// Now reads fn, falling back to the wall clock, in UTC.
func Now(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}
