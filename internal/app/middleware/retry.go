package middleware

import (
	"context"
	"errors"
	"log/slog"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
)

// RetryOnConflict re-dispatches a command whose unit of work lost a
// concurrent update. It must sit outside Transaction so each attempt gets a
// fresh unit.
func RetryOnConflict(attempts int, logger *slog.Logger) CommandMiddleware {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var (
				res any
				err error
			)
			for attempt := 1; attempt <= attempts; attempt++ {
				res, err = next.Dispatch(ctx, cmd)
				if err == nil || !errors.Is(err, uow.ErrConflict) {
					return res, err
				}
				if ctx.Err() != nil {
					break
				}
				logger.Debug("command conflicted, retrying", "command", cmd.Key(), "attempt", attempt)
			}
			return nil, err
		})
	}
}
