package review

import (
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
)

type Submitted struct {
	ReviewID      ID
	ReservationID reservation.ID
	PropertyID    property.ID
	Rating        int
	At            time.Time
}

func (e Submitted) EventName() string     { return "review.submitted" }
func (e Submitted) AggregateID() string   { return string(e.ReviewID) }
func (e Submitted) OccurredAt() time.Time { return e.At }

type Updated struct {
	ReviewID       ID
	PropertyID     property.ID
	PreviousRating int
	Rating         int
	At             time.Time
}

func (e Updated) EventName() string     { return "review.updated" }
func (e Updated) AggregateID() string   { return string(e.ReviewID) }
func (e Updated) OccurredAt() time.Time { return e.At }

type Deleted struct {
	ReviewID   ID
	PropertyID property.ID
	Rating     int
	At         time.Time
}

func (e Deleted) EventName() string     { return "review.deleted" }
func (e Deleted) AggregateID() string   { return string(e.ReviewID) }
func (e Deleted) OccurredAt() time.Time { return e.At }
