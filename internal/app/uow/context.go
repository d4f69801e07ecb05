package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: no unit of work in context")

type unitKey struct{}

func withUnit(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// FromContext returns the unit a command is running in, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

func Require(ctx context.Context) (UnitOfWork, error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, nil
	}
	return nil, ErrUnitOfWorkMissing
}

// Detach hides the unit in ctx from code running after it finished. Values
// and cancellation are kept.
func Detach(ctx context.Context) context.Context {
	if _, ok := FromContext(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, unitKey{}, nil)
}
