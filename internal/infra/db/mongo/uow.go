package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"staybook/internal/app/uow"
	"staybook/internal/domain/compensation"
	"staybook/internal/domain/notification"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/review"
	"staybook/internal/domain/user"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a session with a snapshot transaction. Writes to a document
// another transaction changed fail with a write conflict, which repositories
// report as uow.ErrConflict.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:       session,
		readOnly:      opts.ReadOnly,
		reservations:  NewReservationRepository(f.DB),
		properties:    NewPropertyRepository(f.DB),
		reviews:       NewReviewRepository(f.DB),
		accounts:      NewAccountRepository(f.DB),
		notifications: NewNotificationRepository(f.DB),
		tasks:         NewTaskQueue(f.DB),
	}, nil
}

type Unit struct {
	uow.Hooks
	session  mongo.Session
	readOnly bool
	// hookCtx is the caller's context without the session, used for hooks
	// that run after the session ended.
	hookCtx context.Context

	reservations  *ReservationRepository
	properties    *PropertyRepository
	reviews       *ReviewRepository
	accounts      *AccountRepository
	notifications *NotificationRepository
	tasks         *TaskQueue
}

func (u *Unit) Reservations() reservation.Repository { return u.reservations }
func (u *Unit) Properties() property.Repository { return u.properties }
func (u *Unit) Reviews() review.Repository { return u.reviews }
func (u *Unit) Accounts() user.Repository { return u.accounts }
func (u *Unit) Notifications() notification.Repository { return u.notifications }
func (u *Unit) Compensations() compensation.Queue { return u.tasks }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		_ = u.session.AbortTransaction(ctx)
		u.RunCommitted(u.hooksContext(ctx))
		return nil
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		u.RunRolledBack(u.hooksContext(ctx))
		return mapErr(err)
	}
	u.RunCommitted(u.hooksContext(ctx))
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	err := u.session.AbortTransaction(ctx)
	u.RunRolledBack(u.hooksContext(ctx))
	return err
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	u.hookCtx = ctx
	return mongo.NewSessionContext(ctx, u.session)
}

func (u *Unit) hooksContext(ctx context.Context) context.Context {
	if u.hookCtx != nil {
		return u.hookCtx
	}
	return ctx
}

var (
	_ uow.UnitOfWork = (*Unit)(nil)
	_ uow.UoWFactory = Factory{}
)
