// Package notify persists user notifications with the transition that
// caused them and pushes them live once that transition committed.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	"staybook/internal/domain/notification"
)

type Message struct {
	UserID string
	Title  string
	Body   string
}

type Dispatcher struct {
	Notifier policies.Notifier
	Logger   *slog.Logger
	NewID    func() string
	Now      func() time.Time
}

// Record adds the messages to the unit's notification repository and
// schedules the live push for after commit. A failed push is logged and
// dropped; the stored notification remains.
func (d *Dispatcher) Record(ctx context.Context, unit uow.UnitOfWork, msgs ...Message) error {
	if unit == nil {
		return uow.ErrUnitOfWorkMissing
	}
	now := d.now()
	for _, m := range msgs {
		n, err := notification.New(notification.ID(d.newID()), m.UserID, m.Title, m.Body, now)
		if err != nil {
			return err
		}
		if err := unit.Notifications().Add(ctx, n); err != nil {
			return err
		}
	}
	if d.Notifier == nil || len(msgs) == 0 {
		return nil
	}
	pending := append([]Message(nil), msgs...)
	unit.AfterCommit(func(ctx context.Context) {
		for _, m := range pending {
			if err := d.Notifier.Notify(ctx, m.UserID, m.Title, m.Body); err != nil {
				d.logger().Warn("live notification dropped", "user_id", m.UserID, "title", m.Title, "err", err)
			}
		}
	})
	return nil
}

func (d *Dispatcher) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
