package reservation

import (
	"context"
	"fmt"
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/failure"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

var (
	ErrNotFound          = failure.New(failure.KindNotFound, "reservation: not found")
	ErrInvalidTransition = failure.New(failure.KindStateConflict, "reservation: invalid state transition")
	ErrInvalidDateRange  = failure.New(failure.KindValidation, "reservation: invalid date range")
	ErrInvalidFee        = failure.New(failure.KindValidation, "reservation: total fee must be positive")
	ErrTokenAssigned     = failure.New(failure.KindStateConflict, "reservation: payment token already assigned")
	ErrInvalidPoints     = failure.New(failure.KindValidation, "reservation: points must not be negative")
	ErrMissingField      = failure.New(failure.KindValidation, "reservation: required field missing")
)

type ID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFinished  Status = "finished"
	StatusCanceled  Status = "canceled"
)

// Cancel reasons stored on the reservation.
const (
	ReasonCustomerCanceled = "customer_canceled"
	ReasonDatesUnavailable = "dates_unavailable"
	ReasonReconcileFailed  = "reconciliation_failed"
)

type Reservation struct {
	ID           ID
	CustomerID   string
	PropertyID   property.ID
	Range        daterange.DateRange
	TotalFee     money.Money
	Status       Status
	PaymentToken string
	UserPoints   int64
	HostPoints   int64
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	ByPaymentToken(ctx context.Context, token string) (*Reservation, error)
	// ConfirmedOverlapping returns confirmed reservations of the property
	// whose range overlaps dr, skipping exclude.
	ConfirmedOverlapping(ctx context.Context, propertyID property.ID, dr daterange.DateRange, exclude ID) ([]*Reservation, error)
	ListByCustomer(ctx context.Context, customerID string, statuses ...Status) ([]*Reservation, error)
	ListByProperty(ctx context.Context, propertyID property.ID, statuses ...Status) ([]*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id ID) error
}

type CreateParams struct {
	ID         ID
	CustomerID string
	PropertyID property.ID
	Range      daterange.DateRange
	RentFee    money.Money
	Now        time.Time
}

// NewPending prices the stay at RentFee per whole day and returns a pending
// reservation without a payment token.
func NewPending(params CreateParams) (*Reservation, error) {
	if params.ID == "" || params.CustomerID == "" || params.PropertyID == "" {
		return nil, ErrMissingField
	}
	if err := params.Range.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}
	if params.Range.StartsBefore(params.Now) {
		return nil, fmt.Errorf("%w: start date is in the past", ErrInvalidDateRange)
	}
	days := params.Range.WholeDays()
	if days < 1 {
		return nil, fmt.Errorf("%w: stay must last at least one day", ErrInvalidDateRange)
	}
	fee := params.RentFee.Multiply(days)
	if !fee.IsPositive() {
		return nil, ErrInvalidFee
	}
	now := params.Now.UTC()
	r := &Reservation{
		ID:         params.ID,
		CustomerID: params.CustomerID,
		PropertyID: params.PropertyID,
		Range:      params.Range,
		TotalFee:   fee,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(Requested{ReservationID: r.ID, PropertyID: r.PropertyID, CustomerID: r.CustomerID, Range: r.Range, TotalFee: r.TotalFee, At: now})
	return r, nil
}

// AttachPaymentToken binds the payment session. The token is write-once.
func (r *Reservation) AttachPaymentToken(token string, now time.Time) error {
	if token == "" {
		return ErrMissingField
	}
	if r.PaymentToken != "" {
		return ErrTokenAssigned
	}
	r.PaymentToken = token
	r.UpdatedAt = now.UTC()
	return nil
}

// ActsFor reports whether p may act on the reservation as its customer.
func (r *Reservation) ActsFor(p user.Principal) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == r.CustomerID)
}

func (r *Reservation) Confirm(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = now.UTC()
	r.Record(Confirmed{ReservationID: r.ID, PropertyID: r.PropertyID, Range: r.Range, TotalFee: r.TotalFee, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) Cancel(reason string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.Status = StatusCanceled
	r.CancelReason = reason
	r.UpdatedAt = now.UTC()
	r.Record(Canceled{ReservationID: r.ID, Reason: reason, At: r.UpdatedAt})
	return nil
}

// Finish closes a confirmed stay once its end date has passed.
func (r *Reservation) Finish(now time.Time) error {
	if r.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	if !r.Range.EndedBy(now) {
		return fmt.Errorf("%w: stay has not ended yet", ErrInvalidTransition)
	}
	r.Status = StatusFinished
	r.FinishedAt = now.UTC()
	r.UpdatedAt = r.FinishedAt
	r.Record(Finished{ReservationID: r.ID, CustomerID: r.CustomerID, UserPoints: r.UserPoints, At: r.FinishedAt})
	return nil
}

// MarkDeleted checks that the reservation may be removed and records the event.
func (r *Reservation) MarkDeleted(now time.Time) error {
	if r.Status != StatusPending && r.Status != StatusCanceled {
		return ErrInvalidTransition
	}
	r.Record(Deleted{ReservationID: r.ID, At: now.UTC()})
	return nil
}

func (r *Reservation) SetPoints(userPoints, hostPoints int64, now time.Time) error {
	if userPoints < 0 || hostPoints < 0 {
		return ErrInvalidPoints
	}
	r.UserPoints = userPoints
	r.HostPoints = hostPoints
	r.UpdatedAt = now.UTC()
	return nil
}
