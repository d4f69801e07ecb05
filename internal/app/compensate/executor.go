// Package compensate drives refunds and session cancellations to the
// payment processor. Tasks are recorded in the unit of work that decided
// them, attempted once right after commit and retried by Worker until the
// processor accepts them.
package compensate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	"staybook/internal/domain/compensation"
	"staybook/internal/domain/payment"
	"staybook/internal/domain/reservation"
)

var ErrNotConfigured = errors.New("compensate: executor missing dependencies")

type Executor struct {
	Payments policies.PaymentsPort
	Store    compensation.Store
	Logger   *slog.Logger
	// Backoff lists the delays between attempts; the last entry repeats.
	Backoff []time.Duration
	Now     func() time.Time
}

// Refund enqueues a refund of the reservation's session in unit.
func (e *Executor) Refund(ctx context.Context, unit uow.UnitOfWork, r *reservation.Reservation) error {
	return e.schedule(ctx, unit, compensation.KindRefund, r)
}

// CancelSession enqueues a cancellation of the reservation's session in unit.
func (e *Executor) CancelSession(ctx context.Context, unit uow.UnitOfWork, r *reservation.Reservation) error {
	return e.schedule(ctx, unit, compensation.KindCancel, r)
}

func (e *Executor) schedule(ctx context.Context, unit uow.UnitOfWork, kind compensation.Kind, r *reservation.Reservation) error {
	if unit == nil {
		return uow.ErrUnitOfWorkMissing
	}
	if r.PaymentToken == "" {
		return nil
	}
	now := e.now()
	task, err := compensation.NewTask(kind, r.PaymentToken, string(r.ID), now, now.Add(e.delay(0)))
	if err != nil {
		return err
	}
	if err := unit.Compensations().Enqueue(ctx, task); err != nil {
		return err
	}
	unit.AfterCommit(func(ctx context.Context) {
		_ = e.Attempt(ctx, task)
	})
	return nil
}

// Attempt performs the processor call for task and records the result.
// A cancel that finds the session already final falls back to a refund, so
// a session paid for a reservation that no longer wants it is given back.
// It returns the processor error, if any, after recording it.
func (e *Executor) Attempt(ctx context.Context, task *compensation.Task) error {
	if e.Payments == nil || e.Store == nil {
		return ErrNotConfigured
	}
	var err error
	switch task.Kind {
	case compensation.KindRefund:
		err = e.Payments.RefundSession(ctx, task.Token)
	case compensation.KindCancel:
		err = e.Payments.CancelSession(ctx, task.Token)
		if errors.Is(err, payment.ErrSessionTerminal) {
			// The session was paid before the cancel reached it.
			err = e.Payments.RefundSession(ctx, task.Token)
		}
	default:
		err = compensation.ErrInvalidTask
	}
	log := e.logger().With("task_id", task.ID, "kind", string(task.Kind), "reservation_id", task.ReservationID)
	if err == nil || errors.Is(err, payment.ErrSessionTerminal) {
		if err != nil {
			log.Info("payment session already final", "err", err)
		}
		if markErr := e.Store.MarkDone(ctx, task.ID, e.now()); markErr != nil {
			log.Error("compensation done but not recorded", "err", markErr)
			return markErr
		}
		return nil
	}
	next := e.now().Add(e.delay(task.Attempts + 1))
	log.Error("compensation attempt failed", "attempt", task.Attempts+1, "next_attempt_at", next, "err", err)
	if markErr := e.Store.MarkFailed(ctx, task.ID, next, err.Error()); markErr != nil {
		return errors.Join(err, markErr)
	}
	return err
}

func (e *Executor) delay(attempt int) time.Duration {
	if len(e.Backoff) == 0 {
		return 5 * time.Second
	}
	if attempt < len(e.Backoff) {
		return e.Backoff[attempt]
	}
	return e.Backoff[len(e.Backoff)-1]
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
