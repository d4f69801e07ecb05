package reservations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/availability"
	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	"staybook/internal/domain/payment"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/failure"
	"staybook/internal/domain/user"
)

const createKey = "reservations.create"

type CreateCommand struct {
	CommandID       string
	Actor           user.Principal
	PropertyID      string    `validate:"required"`
	StartDate       time.Time `validate:"required"`
	EndDate         time.Time `validate:"required,gtfield=StartDate"`
	IdempotencyKeyV string
}

func (c CreateCommand) Key() string { return createKey }

func (c CreateCommand) Principal() user.Principal { return c.Actor }

func (c CreateCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateCommand) ResultPrototype() any { return &CreateResult{} }

type CreateResult struct {
	ReservationID string    `json:"reservation_id"`
	PaymentToken  string    `json:"payment_token"`
	ClientSecret  string    `json:"client_secret"`
	TotalFee      int64     `json:"total_fee"`
	Currency      string    `json:"currency"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// CreateHandler records a pending reservation and opens its payment session
// in the same unit: when the session cannot be opened nothing is stored, and
// when the unit fails after the session was opened the session is canceled.
type CreateHandler struct {
	Oracle   availability.Oracle
	Payments policies.PaymentsPort
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
}

func (h *CreateHandler) Handle(ctx context.Context, cmd CreateCommand) (*CreateResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	if h.Payments == nil {
		return nil, errors.New("reservations: payments port not configured")
	}
	now := support.Now(h.Now)
	actor := cmd.Actor
	if actor.Suspended() {
		return nil, ErrAccountSuspended
	}

	prop, err := unit.Properties().ByID(ctx, property.ID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	if !prop.Bookable() {
		return nil, ErrPropertyUnavailable
	}
	if prop.OwnerID == actor.UserID {
		return nil, ErrOwnerSelfBooking
	}

	dr, err := daterange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reservation.ErrInvalidDateRange, err)
	}
	if dr.StartsBefore(now) {
		return nil, fmt.Errorf("%w: start date is in the past", reservation.ErrInvalidDateRange)
	}
	free, err := h.Oracle.IsAvailable(ctx, unit.Reservations(), availability.Request{PropertyID: prop.ID, Range: dr})
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, ErrDatesUnavailable
	}

	id := cmd.CommandID
	if id == "" {
		id = uuid.NewString()
	}
	res, err := reservation.NewPending(reservation.CreateParams{
		ID:         reservation.ID(id),
		CustomerID: actor.UserID,
		PropertyID: prop.ID,
		Range:      dr,
		RentFee:    prop.RentFee,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	billingRef, err := h.billingRef(ctx, unit, actor.UserID)
	if err != nil {
		return nil, err
	}
	session, err := h.Payments.OpenSession(ctx, payment.SessionRequest{
		ReservationID: string(res.ID),
		PropertyID:    string(prop.ID),
		CustomerRef:   billingRef,
		Amount:        res.TotalFee,
		AttemptKey:    string(res.ID) + ":" + uuid.NewString(),
	})
	if err != nil {
		if failure.KindOf(err) == failure.KindUnknown {
			err = failure.Wrap(failure.KindExternalService, err)
		}
		return nil, err
	}
	unit.AfterRollback(func(ctx context.Context) {
		if err := h.Payments.CancelSession(ctx, session.Token); err != nil && !errors.Is(err, payment.ErrSessionTerminal) {
			h.logger().Error("orphaned payment session not canceled", "payment_token", session.Token, "reservation_id", string(res.ID), "err", err)
		}
	})
	if err := res.AttachPaymentToken(session.Token, now); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	if err := outbox.RecordFrom(ctx, h.Outbox, h.Encoder, res); err != nil {
		return nil, err
	}
	h.logger().Info("reservation requested", "reservation_id", string(res.ID), "property_id", string(prop.ID), "total_fee", res.TotalFee.Amount)

	return &CreateResult{
		ReservationID: string(res.ID),
		PaymentToken:  session.Token,
		ClientSecret:  session.ClientSecret,
		TotalFee:      res.TotalFee.Amount,
		Currency:      res.TotalFee.Currency,
		StartDate:     res.Range.Start,
		EndDate:       res.Range.End,
	}, nil
}

func (h *CreateHandler) billingRef(ctx context.Context, unit uow.UnitOfWork, userID string) (string, error) {
	acct, err := unit.Accounts().ByID(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return acct.BillingRef, nil
}

func (h *CreateHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *CreateHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[CreateCommand, *CreateResult](bus, createKey, h)
}

var _ commands.Handler[CreateCommand, *CreateResult] = (*CreateHandler)(nil)
var _ middleware.IdempotentCommand = CreateCommand{}
var _ middleware.Actor = CreateCommand{}
