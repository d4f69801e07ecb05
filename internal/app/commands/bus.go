// Package commands routes state-changing requests to their handlers. Every
// command carries a stable key; middleware wraps the Bus to add validation,
// authorization, idempotency and the unit of work.
package commands

import (
	"context"
	"errors"
	"fmt"
)

type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) { return f(ctx, cmd) }

type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrNoHandler   = errors.New("commands: no handler registered")
	ErrWrongType   = errors.New("commands: command does not match handler")
	ErrResultType  = errors.New("commands: unexpected result type")
	ErrBusRequired = errors.New("commands: bus required")
)

// Dispatch sends cmd through bus and asserts the result type. A nil result
// yields the zero R.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var out R
	if bus == nil {
		return out, ErrBusRequired
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return out, err
	}
	typed, ok := res.(R)
	if !ok {
		return out, fmt.Errorf("%w: %s returned %T, want %T", ErrResultType, cmd.Key(), res, out)
	}
	return typed, nil
}
