// Package reconcile settles reservations from asynchronous payment outcomes.
// It is the only place a reservation becomes confirmed.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/availability"
	"staybook/internal/app/counters"
	"staybook/internal/app/notify"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	"staybook/internal/domain/payment"
	"staybook/internal/domain/reservation"
)

// Decision tells what reconciling one outcome did.
type Decision string

const (
	DecisionConfirmed Decision = "confirmed"
	DecisionRefunded  Decision = "refunded"
	// DecisionSettled means the reservation had already left pending; a
	// redelivered outcome lands here.
	DecisionSettled  Decision = "settled"
	DecisionDropped  Decision = "dropped"
	DecisionRecorded Decision = "recorded"
)

// Compensator records a refund in a unit of work.
type Compensator interface {
	Refund(ctx context.Context, unit uow.UnitOfWork, r *reservation.Reservation) error
}

type Reconciler struct {
	UoWFactory  uow.UoWFactory
	Oracle      availability.Oracle
	Counters    counters.Updater
	Compensator Compensator
	Notify      *notify.Dispatcher
	Events      payment.EventLog
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger
	// Attempts bounds the retries of a unit that lost a concurrent update.
	Attempts int
	Now      func() time.Time
}

// Reconcile applies one outcome. A nil error means the outcome is fully
// handled and must not be redelivered; an error asks for redelivery.
func (r *Reconciler) Reconcile(ctx context.Context, o payment.Outcome) (Decision, error) {
	log := r.logger().With("outcome_id", o.ID, "outcome_type", string(o.Type), "payment_token", o.Token)
	if err := o.Validate(); err != nil {
		log.Warn("malformed payment outcome dropped", "err", err)
		return DecisionDropped, nil
	}
	if o.Type != payment.OutcomeSucceeded {
		return r.record(ctx, log, o)
	}

	var decision Decision
	err := uow.Run(ctx, r.UoWFactory, r.attempts(), func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		decision, err = r.settle(ctx, unit, o.Token)
		return err
	})
	if err == nil {
		log.Info("payment outcome reconciled", "decision", string(decision))
		return decision, nil
	}
	if ctx.Err() != nil {
		return "", err
	}
	log.Error("reconciliation failed, compensating", "err", err)
	fbErr := uow.Run(ctx, r.UoWFactory, r.attempts(), func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		decision, err = r.fallback(ctx, unit, o.Token)
		return err
	})
	if fbErr != nil {
		log.Error("compensation after failed reconciliation did not commit", "err", fbErr)
		return "", errors.Join(err, fbErr)
	}
	log.Warn("payment outcome compensated", "decision", string(decision))
	return decision, nil
}

// settle re-checks the reservation's dates against every other confirmed
// reservation and either confirms it or cancels it with a refund.
func (r *Reconciler) settle(ctx context.Context, unit uow.UnitOfWork, token string) (Decision, error) {
	res, err := unit.Reservations().ByPaymentToken(ctx, token)
	if errors.Is(err, reservation.ErrNotFound) {
		r.logger().Warn("payment outcome for unknown session dropped", "payment_token", token)
		return DecisionDropped, nil
	}
	if err != nil {
		return "", err
	}
	switch res.Status {
	case reservation.StatusPending:
	case reservation.StatusCanceled:
		// Paid after it was canceled; the money goes back.
		if err := r.Compensator.Refund(ctx, unit, res); err != nil {
			return "", err
		}
		return DecisionRefunded, nil
	default:
		return DecisionSettled, nil
	}

	// Confirmations of one property all write its row, so reading it before
	// the check makes a confirmation committed in between a conflict.
	prop, err := unit.Properties().ByID(ctx, res.PropertyID)
	if err != nil {
		return "", err
	}
	free, err := r.Oracle.IsAvailable(ctx, unit.Reservations(), availability.Request{
		PropertyID: res.PropertyID,
		Range:      res.Range,
		Exclude:    res.ID,
	})
	if err != nil {
		return "", err
	}
	if !free {
		return DecisionRefunded, r.reject(ctx, unit, res, reservation.ReasonDatesUnavailable)
	}

	now := r.now()
	if err := res.Confirm(now); err != nil {
		return "", err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return "", err
	}
	if err := r.Counters.ReservationConfirmed(ctx, unit, res.PropertyID); err != nil {
		return "", err
	}
	if err := r.Notify.Record(ctx, unit, notify.PaymentSucceeded(res, prop), notify.NewReservation(res, prop)); err != nil {
		return "", err
	}
	if err := outbox.RecordFrom(ctx, r.Outbox, r.Encoder, res); err != nil {
		return "", err
	}
	return DecisionConfirmed, nil
}

// fallback runs in a fresh unit after settle failed. Whatever is still
// pending gets canceled and refunded so that no paid reservation is left
// unconfirmed.
func (r *Reconciler) fallback(ctx context.Context, unit uow.UnitOfWork, token string) (Decision, error) {
	res, err := unit.Reservations().ByPaymentToken(ctx, token)
	if errors.Is(err, reservation.ErrNotFound) {
		return DecisionDropped, nil
	}
	if err != nil {
		return "", err
	}
	switch res.Status {
	case reservation.StatusPending:
		return DecisionRefunded, r.reject(ctx, unit, res, reservation.ReasonReconcileFailed)
	case reservation.StatusCanceled:
		return DecisionRefunded, r.Compensator.Refund(ctx, unit, res)
	default:
		return DecisionSettled, nil
	}
}

func (r *Reconciler) reject(ctx context.Context, unit uow.UnitOfWork, res *reservation.Reservation, reason string) error {
	if err := res.Cancel(reason, r.now()); err != nil {
		return err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return err
	}
	if err := r.Compensator.Refund(ctx, unit, res); err != nil {
		return err
	}
	msg := notify.ProcessingFailed(res)
	if reason == reservation.ReasonDatesUnavailable {
		prop, err := unit.Properties().ByID(ctx, res.PropertyID)
		if err != nil {
			return err
		}
		msg = notify.PropertyUnavailable(res, prop)
	}
	if err := r.Notify.Record(ctx, unit, msg); err != nil {
		return err
	}
	return outbox.RecordFrom(ctx, r.Outbox, r.Encoder, res)
}

// record keeps outcomes that do not move a reservation.
func (r *Reconciler) record(ctx context.Context, log *slog.Logger, o payment.Outcome) (Decision, error) {
	switch o.Type {
	case payment.OutcomeFailed:
		log.Warn("payment failed")
	case payment.OutcomeCanceled:
		log.Info("payment session canceled")
	default:
		log.Debug("payment outcome recorded")
	}
	if r.Events == nil {
		return DecisionRecorded, nil
	}
	if err := r.Events.Append(ctx, o); err != nil {
		return "", err
	}
	return DecisionRecorded, nil
}

func (r *Reconciler) attempts() int {
	if r.Attempts < 1 {
		return 5
	}
	return r.Attempts
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Reconciler) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
