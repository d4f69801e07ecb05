package reservations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/user"
)

const (
	cancelKey       = "reservations.cancel"
	finishKey       = "reservations.finish"
	deleteKey       = "reservations.delete"
	adjustPointsKey = "reservations.adjust_points"
)

// Compensator records processor side effects in a unit of work; they run
// after the unit commits and are retried until the processor accepts them.
type Compensator interface {
	Refund(ctx context.Context, unit uow.UnitOfWork, r *reservation.Reservation) error
	CancelSession(ctx context.Context, unit uow.UnitOfWork, r *reservation.Reservation) error
}

type CancelCommand struct {
	Actor         user.Principal
	ReservationID string `validate:"required"`
}

func (c CancelCommand) Key() string               { return cancelKey }
func (c CancelCommand) Principal() user.Principal { return c.Actor }

type FinishCommand struct {
	Actor         user.Principal
	ReservationID string `validate:"required"`
}

func (c FinishCommand) Key() string               { return finishKey }
func (c FinishCommand) Principal() user.Principal { return c.Actor }

type DeleteCommand struct {
	Actor         user.Principal
	ReservationID string `validate:"required"`
}

func (c DeleteCommand) Key() string               { return deleteKey }
func (c DeleteCommand) Principal() user.Principal { return c.Actor }

type AdjustPointsCommand struct {
	Actor         user.Principal
	ReservationID string `validate:"required"`
	UserPoints    int64  `validate:"gte=0"`
	HostPoints    int64  `validate:"gte=0"`
}

func (c AdjustPointsCommand) Key() string               { return adjustPointsKey }
func (c AdjustPointsCommand) Principal() user.Principal { return c.Actor }
func (c AdjustPointsCommand) AdminOnly()                {}

// TransitionHandler applies the customer and administrator driven
// transitions of a reservation.
type TransitionHandler struct {
	Compensator Compensator
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger
	Now         func() time.Time
}

// Cancel aborts a pending reservation and schedules the cancellation of its
// payment session.
func (h *TransitionHandler) Cancel(ctx context.Context, cmd CancelCommand) (dto.Reservation, error) {
	unit, res, err := h.load(ctx, cmd.Actor, cmd.ReservationID)
	if err != nil {
		return dto.Reservation{}, err
	}
	if err := res.Cancel(reservation.ReasonCustomerCanceled, support.Now(h.Now)); err != nil {
		return dto.Reservation{}, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return dto.Reservation{}, err
	}
	if err := h.Compensator.CancelSession(ctx, unit, res); err != nil {
		return dto.Reservation{}, err
	}
	if err := outbox.RecordFrom(ctx, h.Outbox, h.Encoder, res); err != nil {
		return dto.Reservation{}, err
	}
	h.logger().Info("reservation canceled", "reservation_id", string(res.ID), "actor", cmd.Actor.UserID)
	return dto.MapReservation(res), nil
}

// Finish closes a confirmed stay after its end date and credits the
// reservation's user points to the customer.
func (h *TransitionHandler) Finish(ctx context.Context, cmd FinishCommand) (dto.Reservation, error) {
	unit, res, err := h.load(ctx, cmd.Actor, cmd.ReservationID)
	if err != nil {
		return dto.Reservation{}, err
	}
	now := support.Now(h.Now)
	if err := res.Finish(now); err != nil {
		return dto.Reservation{}, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return dto.Reservation{}, err
	}
	acct, err := unit.Accounts().ByID(ctx, res.CustomerID)
	if errors.Is(err, user.ErrNotFound) {
		acct, err = user.NewAccount(res.CustomerID, "", now)
	}
	if err != nil {
		return dto.Reservation{}, err
	}
	if err := acct.AwardPoints(res.UserPoints, now); err != nil {
		return dto.Reservation{}, err
	}
	acct.Reservations++
	if err := unit.Accounts().Save(ctx, acct); err != nil {
		return dto.Reservation{}, err
	}
	if err := outbox.RecordFrom(ctx, h.Outbox, h.Encoder, res); err != nil {
		return dto.Reservation{}, err
	}
	return dto.MapReservation(res), nil
}

// Delete removes a pending or canceled reservation. A pending one still has
// an open session, which is canceled.
func (h *TransitionHandler) Delete(ctx context.Context, cmd DeleteCommand) (struct{}, error) {
	unit, res, err := h.load(ctx, cmd.Actor, cmd.ReservationID)
	if err != nil {
		return struct{}{}, err
	}
	wasPending := res.Status == reservation.StatusPending
	if err := res.MarkDeleted(support.Now(h.Now)); err != nil {
		return struct{}{}, err
	}
	if wasPending {
		if err := h.Compensator.CancelSession(ctx, unit, res); err != nil {
			return struct{}{}, err
		}
	}
	if err := unit.Reservations().Delete(ctx, res.ID); err != nil {
		return struct{}{}, err
	}
	if err := outbox.RecordFrom(ctx, h.Outbox, h.Encoder, res); err != nil {
		return struct{}{}, err
	}
	h.logger().Info("reservation deleted", "reservation_id", string(res.ID), "actor", cmd.Actor.UserID)
	return struct{}{}, nil
}

// AdjustPoints sets the reward accumulators. Status is left untouched.
func (h *TransitionHandler) AdjustPoints(ctx context.Context, cmd AdjustPointsCommand) (dto.Reservation, error) {
	unit, res, err := h.load(ctx, cmd.Actor, cmd.ReservationID)
	if err != nil {
		return dto.Reservation{}, err
	}
	if err := res.SetPoints(cmd.UserPoints, cmd.HostPoints, support.Now(h.Now)); err != nil {
		return dto.Reservation{}, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return dto.Reservation{}, err
	}
	return dto.MapReservation(res), nil
}

func (h *TransitionHandler) load(ctx context.Context, actor user.Principal, id string) (uow.UnitOfWork, *reservation.Reservation, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := unit.Reservations().ByID(ctx, reservation.ID(id))
	if err != nil {
		return nil, nil, err
	}
	if !res.ActsFor(actor) {
		return nil, nil, ErrForbidden
	}
	return unit, res, nil
}

func (h *TransitionHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Register wires the transition commands onto bus.
func (h *TransitionHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler(bus, cancelKey, commands.HandlerFunc[CancelCommand, dto.Reservation](h.Cancel))
	commands.RegisterHandler(bus, finishKey, commands.HandlerFunc[FinishCommand, dto.Reservation](h.Finish))
	commands.RegisterHandler(bus, deleteKey, commands.HandlerFunc[DeleteCommand, struct{}](h.Delete))
	commands.RegisterHandler(bus, adjustPointsKey, commands.HandlerFunc[AdjustPointsCommand, dto.Reservation](h.AdjustPoints))
}
