package uow

import (
	"context"
	"errors"
)

// Begin starts a unit and returns a context carrying it. Units that need
// driver state in the context (sessions) expose InjectContext.
func Begin(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, error) {
	if factory == nil {
		return nil, ctx, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return unit, withUnit(execCtx, unit), nil
}

// Run executes fn inside a fresh unit, committing on success and rolling
// back otherwise. It retries up to attempts times when the unit fails with
// ErrConflict.
func Run(ctx context.Context, factory UoWFactory, attempts int, fn func(ctx context.Context, unit UnitOfWork) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = runOnce(ctx, factory, fn); err == nil || !errors.Is(err, ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return errors.Join(err, ctx.Err())
		}
	}
	return err
}

func runOnce(ctx context.Context, factory UoWFactory, fn func(ctx context.Context, unit UnitOfWork) error) error {
	unit, execCtx, err := Begin(ctx, factory, TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(execCtx, unit); err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	return unit.Commit(execCtx)
}
