package mongo

import (
	"time"

	"staybook/internal/domain/compensation"
	"staybook/internal/domain/notification"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/review"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

// rangeDocument stores day bounds as unix milliseconds so range predicates
// compare plain integers.
type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

type reservationDocument struct {
	ID           string        `bson:"_id"`
	CustomerID   string        `bson:"customer_id"`
	PropertyID   string        `bson:"property_id"`
	Range        rangeDocument `bson:"range"`
	TotalFee     moneyDocument `bson:"total_fee"`
	Status       string        `bson:"status"`
	PaymentToken string        `bson:"payment_token"`
	UserPoints   int64         `bson:"user_points"`
	HostPoints   int64         `bson:"host_points"`
	CancelReason string        `bson:"cancel_reason,omitempty"`
	CreatedAt    int64         `bson:"created_at"`
	UpdatedAt    int64         `bson:"updated_at"`
	FinishedAt   int64         `bson:"finished_at,omitempty"`
	Version      int64         `bson:"version"`
}

func newReservationDocument(r *reservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:           string(r.ID),
		CustomerID:   r.CustomerID,
		PropertyID:   string(r.PropertyID),
		Range:        rangeDocument{Start: timeToTimestamp(r.Range.Start), End: timeToTimestamp(r.Range.End)},
		TotalFee:     newMoneyDocument(r.TotalFee),
		Status:       string(r.Status),
		PaymentToken: r.PaymentToken,
		UserPoints:   r.UserPoints,
		HostPoints:   r.HostPoints,
		CancelReason: r.CancelReason,
		CreatedAt:    timeToTimestamp(r.CreatedAt),
		UpdatedAt:    timeToTimestamp(r.UpdatedAt),
		FinishedAt:   timeToTimestamp(r.FinishedAt),
		Version:      r.Version,
	}
}

func (d reservationDocument) toAggregate() *reservation.Reservation {
	return &reservation.Reservation{
		ID:           reservation.ID(d.ID),
		CustomerID:   d.CustomerID,
		PropertyID:   property.ID(d.PropertyID),
		Range:        daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		TotalFee:     d.TotalFee.toMoney(),
		Status:       reservation.Status(d.Status),
		PaymentToken: d.PaymentToken,
		UserPoints:   d.UserPoints,
		HostPoints:   d.HostPoints,
		CancelReason: d.CancelReason,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		FinishedAt:   timestampToTime(d.FinishedAt),
		Version:      d.Version,
	}
}

type propertyDocument struct {
	ID                   string        `bson:"_id"`
	OwnerID              string        `bson:"owner_id"`
	Title                string        `bson:"title"`
	Status               string        `bson:"status"`
	RentFee              moneyDocument `bson:"rent_fee"`
	NumberOfReservations int64         `bson:"number_of_reservations"`
	AvgRating            float64       `bson:"avg_rating"`
	NumberOfRatings      int64         `bson:"number_of_ratings"`
	UpdatedAt            int64         `bson:"updated_at"`
	Version              int64         `bson:"version"`
}

func newPropertyDocument(p *property.Property) propertyDocument {
	return propertyDocument{
		ID:                   string(p.ID),
		OwnerID:              p.OwnerID,
		Title:                p.Title,
		Status:               string(p.Status),
		RentFee:              newMoneyDocument(p.RentFee),
		NumberOfReservations: p.NumberOfReservations,
		AvgRating:            p.AvgRating,
		NumberOfRatings:      p.NumberOfRatings,
		UpdatedAt:            timeToTimestamp(p.UpdatedAt),
		Version:              p.Version,
	}
}

func (d propertyDocument) toAggregate() *property.Property {
	return &property.Property{
		ID:                   property.ID(d.ID),
		OwnerID:              d.OwnerID,
		Title:                d.Title,
		Status:               property.Status(d.Status),
		RentFee:              d.RentFee.toMoney(),
		NumberOfReservations: d.NumberOfReservations,
		AvgRating:            d.AvgRating,
		NumberOfRatings:      d.NumberOfRatings,
		UpdatedAt:            timestampToTime(d.UpdatedAt),
		Version:              d.Version,
	}
}

type reviewDocument struct {
	ID            string `bson:"_id"`
	ReservationID string `bson:"reservation_id"`
	PropertyID    string `bson:"property_id"`
	AuthorID      string `bson:"author_id"`
	Rating        int    `bson:"rating"`
	Comment       string `bson:"comment"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
	WindowEndsAt  int64  `bson:"window_ends_at"`
}

func newReviewDocument(r *review.Review) reviewDocument {
	return reviewDocument{
		ID:            string(r.ID),
		ReservationID: string(r.ReservationID),
		PropertyID:    string(r.PropertyID),
		AuthorID:      r.AuthorID,
		Rating:        r.Rating,
		Comment:       r.Comment,
		CreatedAt:     timeToTimestamp(r.CreatedAt),
		UpdatedAt:     timeToTimestamp(r.UpdatedAt),
		WindowEndsAt:  timeToTimestamp(r.WindowEndsAt),
	}
}

func (d reviewDocument) toAggregate() *review.Review {
	return &review.Review{
		ID:            review.ID(d.ID),
		ReservationID: reservation.ID(d.ReservationID),
		PropertyID:    property.ID(d.PropertyID),
		AuthorID:      d.AuthorID,
		Rating:        d.Rating,
		Comment:       d.Comment,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		WindowEndsAt:  timestampToTime(d.WindowEndsAt),
	}
}

type accountDocument struct {
	ID           string `bson:"_id"`
	BillingRef   string `bson:"billing_ref"`
	RewardPoints int64  `bson:"reward_points"`
	Reservations int64  `bson:"reservations"`
	UpdatedAt    int64  `bson:"updated_at"`
	Version      int64  `bson:"version"`
}

func newAccountDocument(a *user.Account) accountDocument {
	return accountDocument{
		ID:           a.ID,
		BillingRef:   a.BillingRef,
		RewardPoints: a.RewardPoints,
		Reservations: a.Reservations,
		UpdatedAt:    timeToTimestamp(a.UpdatedAt),
		Version:      a.Version,
	}
}

func (d accountDocument) toAggregate() *user.Account {
	return &user.Account{
		ID:           d.ID,
		BillingRef:   d.BillingRef,
		RewardPoints: d.RewardPoints,
		Reservations: d.Reservations,
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

type notificationDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	Title     string `bson:"title"`
	Message   string `bson:"message"`
	Read      bool   `bson:"read"`
	CreatedAt int64  `bson:"created_at"`
}

func newNotificationDocument(n *notification.Notification) notificationDocument {
	return notificationDocument{
		ID:        string(n.ID),
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: timeToTimestamp(n.CreatedAt),
	}
}

func (d notificationDocument) toAggregate() *notification.Notification {
	return &notification.Notification{
		ID:        notification.ID(d.ID),
		UserID:    d.UserID,
		Title:     d.Title,
		Message:   d.Message,
		Read:      d.Read,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

type taskDocument struct {
	ID            string    `bson:"_id"`
	Kind          string    `bson:"kind"`
	Token         string    `bson:"token"`
	ReservationID string    `bson:"reservation_id"`
	State         string    `bson:"state"`
	Attempts      int       `bson:"attempts"`
	NextAttemptAt time.Time `bson:"next_attempt_at"`
	LastError     string    `bson:"last_error"`
	ClaimedBy     string    `bson:"claimed_by,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func newTaskDocument(t *compensation.Task) taskDocument {
	return taskDocument{
		ID:            t.ID,
		Kind:          string(t.Kind),
		Token:         t.Token,
		ReservationID: t.ReservationID,
		State:         string(t.State),
		Attempts:      t.Attempts,
		NextAttemptAt: t.NextAttemptAt,
		LastError:     t.LastError,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (d taskDocument) toTask() *compensation.Task {
	return &compensation.Task{
		ID:            d.ID,
		Kind:          compensation.Kind(d.Kind),
		Token:         d.Token,
		ReservationID: d.ReservationID,
		State:         compensation.State(d.State),
		Attempts:      d.Attempts,
		NextAttemptAt: d.NextAttemptAt.UTC(),
		LastError:     d.LastError,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}
