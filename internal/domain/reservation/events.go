package reservation

import (
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

type Requested struct {
	ReservationID ID
	PropertyID    property.ID
	CustomerID    string
	Range         daterange.DateRange
	TotalFee      money.Money
	At            time.Time
}

func (e Requested) EventName() string     { return "reservation.requested" }
func (e Requested) AggregateID() string   { return string(e.ReservationID) }
func (e Requested) OccurredAt() time.Time { return e.At }

type Confirmed struct {
	ReservationID ID
	PropertyID    property.ID
	Range         daterange.DateRange
	TotalFee      money.Money
	At            time.Time
}

func (e Confirmed) EventName() string     { return "reservation.confirmed" }
func (e Confirmed) AggregateID() string   { return string(e.ReservationID) }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Canceled struct {
	ReservationID ID
	Reason        string
	At            time.Time
}

func (e Canceled) EventName() string     { return "reservation.canceled" }
func (e Canceled) AggregateID() string   { return string(e.ReservationID) }
func (e Canceled) OccurredAt() time.Time { return e.At }

type Finished struct {
	ReservationID ID
	CustomerID    string
	UserPoints    int64
	At            time.Time
}

func (e Finished) EventName() string     { return "reservation.finished" }
func (e Finished) AggregateID() string   { return string(e.ReservationID) }
func (e Finished) OccurredAt() time.Time { return e.At }

type Deleted struct {
	ReservationID ID
	At            time.Time
}

func (e Deleted) EventName() string     { return "reservation.deleted" }
func (e Deleted) AggregateID() string   { return string(e.ReservationID) }
func (e Deleted) OccurredAt() time.Time { return e.At }
