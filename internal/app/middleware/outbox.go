package middleware

import (
	"context"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
)

// OutboxFlush writes the records a handler added to box into the open unit
// of work. It sits inside Transaction, so a failed flush rolls the command
// back.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err == nil {
				err = box.Flush(ctx)
			}
			if err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
