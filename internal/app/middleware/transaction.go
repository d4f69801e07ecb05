package middleware

import (
	"context"
	"errors"
	"log/slog"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
)

// ReadOnly marks commands whose handlers only read.
type ReadOnly interface {
	ReadOnly() bool
}

// Transaction opens a unit of work per command and carries it in the
// context. A handler error rolls the unit back; otherwise the unit commits
// and a commit failure, such as uow.ErrConflict, is returned to the caller.
func Transaction(factory uow.UoWFactory, logger *slog.Logger) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (res any, err error) {
			var opts uow.TxOptions
			if ro, ok := cmd.(ReadOnly); ok {
				opts.ReadOnly = ro.ReadOnly()
			}
			unit, txCtx, err := uow.Begin(ctx, factory, opts)
			if err != nil {
				return nil, err
			}
			if res, err = next.Dispatch(txCtx, cmd); err != nil {
				if rbErr := unit.Rollback(txCtx); rbErr != nil && logger != nil {
					logger.Warn("rollback failed", "command", cmd.Key(), "err", rbErr)
				}
				return nil, err
			}
			if err := unit.Commit(txCtx); err != nil {
				if logger != nil && !errors.Is(err, uow.ErrConflict) {
					logger.Error("commit failed", "command", cmd.Key(), "err", err)
				}
				return nil, err
			}
			return res, nil
		})
	}
}
