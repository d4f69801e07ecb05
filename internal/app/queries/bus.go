// Package queries mirrors commands for reads. Query handlers never write;
// they open their own read-only units.
package queries

import (
	"context"
	"errors"
	"fmt"
)

type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, q Q) (R, error)
}

type HandlerFunc[Q Query, R any] func(ctx context.Context, q Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, q Q) (R, error) { return f(ctx, q) }

type Bus interface {
	Ask(ctx context.Context, q Query) (any, error)
}

var (
	ErrNoHandler   = errors.New("queries: no handler registered")
	ErrWrongType   = errors.New("queries: query does not match handler")
	ErrResultType  = errors.New("queries: unexpected result type")
	ErrBusRequired = errors.New("queries: bus required")
)

// Ask sends q through bus and asserts the result type.
func Ask[Q Query, R any](ctx context.Context, bus Bus, q Q) (R, error) {
	var out R
	if bus == nil {
		return out, ErrBusRequired
	}
	res, err := bus.Ask(ctx, q)
	if err != nil || res == nil {
		return out, err
	}
	typed, ok := res.(R)
	if !ok {
		return out, fmt.Errorf("%w: %s returned %T, want %T", ErrResultType, q.Key(), res, out)
	}
	return typed, nil
}
