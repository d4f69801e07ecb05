package uow

import (
	"context"

	"staybook/internal/domain/compensation"
	"staybook/internal/domain/notification"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/review"
	"staybook/internal/domain/shared/failure"
	"staybook/internal/domain/user"
)

// ErrConflict reports that a concurrent unit changed data this unit read or
// wrote. The whole unit may be retried.
var ErrConflict = failure.New(failure.KindStateConflict, "uow: concurrent update detected")

// UnitOfWork coordinates repositories inside a transaction boundary. All
// reads and writes through its repositories are serializable with respect
// to other units.
type UnitOfWork interface {
	Reservations() reservation.Repository
	Properties() property.Repository
	Reviews() review.Repository
	Accounts() user.Repository
	Notifications() notification.Repository
	Compensations() compensation.Queue

	// AfterCommit schedules fn to run once the unit committed successfully.
	AfterCommit(fn func(ctx context.Context))
	// AfterRollback schedules fn to run if the unit is rolled back or its
	// commit fails.
	AfterRollback(fn func(ctx context.Context))

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
