package dto

import (
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/review"
)

type Review struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	PropertyID    string    `json:"property_id"`
	AuthorID      string    `json:"author_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	EditableUntil time.Time `json:"editable_until"`
}

type RatingSummary struct {
	PropertyID      string  `json:"property_id"`
	AvgRating       float64 `json:"avg_rating"`
	NumberOfRatings int64   `json:"number_of_ratings"`
}

type ReviewResult struct {
	Review Review        `json:"review"`
	Rating RatingSummary `json:"rating"`
}

func MapReview(r *review.Review) Review {
	return Review{
		ID:            string(r.ID),
		ReservationID: string(r.ReservationID),
		PropertyID:    string(r.PropertyID),
		AuthorID:      r.AuthorID,
		Rating:        r.Rating,
		Comment:       r.Comment,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		EditableUntil: r.WindowEndsAt,
	}
}

func MapRating(p *property.Property) RatingSummary {
	return RatingSummary{PropertyID: string(p.ID), AvgRating: p.AvgRating, NumberOfRatings: p.NumberOfRatings}
}
