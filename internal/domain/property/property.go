package property

import (
	"context"
	"time"

	"staybook/internal/domain/shared/failure"
	"staybook/internal/domain/shared/money"
)

var (
	ErrNotFound       = failure.New(failure.KindNotFound, "property: not found")
	ErrInvalidRating  = failure.New(failure.KindValidation, "property: rating must be between 1 and 5")
	ErrNoRatings      = failure.New(failure.KindStateConflict, "property: no ratings to remove")
	ErrInvalidRentFee = failure.New(failure.KindValidation, "property: rent fee must be positive")
)

// DefaultRating is the neutral average shown while a property has no ratings.
const DefaultRating = 5.0

type ID string

type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

type Property struct {
	ID      ID
	OwnerID string
	Title   string
	Status  Status
	// RentFee is charged per whole day of stay.
	RentFee              money.Money
	NumberOfReservations int64
	AvgRating            float64
	NumberOfRatings      int64
	Version              int64
	UpdatedAt            time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
}

type CreateParams struct {
	ID      ID
	OwnerID string
	Title   string
	RentFee money.Money
	Now     time.Time
}

func New(params CreateParams) (*Property, error) {
	if params.ID == "" || params.OwnerID == "" {
		return nil, failure.New(failure.KindValidation, "property: id and owner are required")
	}
	if !params.RentFee.IsPositive() {
		return nil, ErrInvalidRentFee
	}
	return &Property{
		ID:        params.ID,
		OwnerID:   params.OwnerID,
		Title:     params.Title,
		Status:    StatusAvailable,
		RentFee:   params.RentFee,
		AvgRating: DefaultRating,
		UpdatedAt: params.Now.UTC(),
	}, nil
}

// Bookable reports whether new reservations may be requested.
func (p *Property) Bookable() bool {
	return p.Status == StatusAvailable
}

func (p *Property) RecordReservation(now time.Time) {
	p.NumberOfReservations++
	p.UpdatedAt = now.UTC()
}

func (p *Property) AddRating(rating int, now time.Time) error {
	if !validRating(rating) {
		return ErrInvalidRating
	}
	n := float64(p.NumberOfRatings)
	if p.NumberOfRatings == 0 {
		p.AvgRating = float64(rating)
	} else {
		p.AvgRating = (p.AvgRating*n + float64(rating)) / (n + 1)
	}
	p.NumberOfRatings++
	p.UpdatedAt = now.UTC()
	return nil
}

// RemoveRating reverses AddRating. Removing the last rating resets the
// average to DefaultRating.
func (p *Property) RemoveRating(rating int, now time.Time) error {
	if !validRating(rating) {
		return ErrInvalidRating
	}
	if p.NumberOfRatings <= 0 {
		return ErrNoRatings
	}
	n := float64(p.NumberOfRatings)
	if p.NumberOfRatings == 1 {
		p.AvgRating = DefaultRating
	} else {
		p.AvgRating = (p.AvgRating*n - float64(rating)) / (n - 1)
	}
	p.NumberOfRatings--
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Property) ReplaceRating(previous, next int, now time.Time) error {
	if !validRating(previous) || !validRating(next) {
		return ErrInvalidRating
	}
	if p.NumberOfRatings <= 0 {
		return ErrNoRatings
	}
	n := float64(p.NumberOfRatings)
	p.AvgRating = (p.AvgRating*n - float64(previous) + float64(next)) / n
	p.UpdatedAt = now.UTC()
	return nil
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}
