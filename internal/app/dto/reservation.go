package dto

import (
	"time"

	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type Reservation struct {
	ID           string     `json:"id"`
	CustomerID   string     `json:"customer_id"`
	PropertyID   string     `json:"property_id"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	TotalFee     MoneyDTO   `json:"total_fee"`
	Status       string     `json:"status"`
	UserPoints   int64      `json:"user_points"`
	HostPoints   int64      `json:"host_points"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

type ReservationCollection struct {
	Items []Reservation `json:"items"`
}

// MapReservation leaves the payment token out: it is shared with the
// customer only once, when the session is opened.
func MapReservation(r *reservation.Reservation) Reservation {
	out := Reservation{
		ID:           string(r.ID),
		CustomerID:   r.CustomerID,
		PropertyID:   string(r.PropertyID),
		StartDate:    r.Range.Start,
		EndDate:      r.Range.End,
		TotalFee:     MapMoney(r.TotalFee),
		Status:       string(r.Status),
		UserPoints:   r.UserPoints,
		HostPoints:   r.HostPoints,
		CancelReason: r.CancelReason,
		CreatedAt:    r.CreatedAt,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		out.FinishedAt = &finished
	}
	return out
}

func MapReservations(rs []*reservation.Reservation) ReservationCollection {
	items := make([]Reservation, 0, len(rs))
	for _, r := range rs {
		items = append(items, MapReservation(r))
	}
	return ReservationCollection{Items: items}
}
