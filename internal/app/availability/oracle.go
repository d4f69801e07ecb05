// Package availability decides whether a property can take a stay.
package availability

import (
	"context"
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

type Request struct {
	PropertyID property.ID
	Range      daterange.DateRange
	// Exclude is skipped when looking for conflicts, so a reservation can
	// be checked against everyone but itself.
	Exclude reservation.ID
}

// Oracle answers availability from confirmed reservations only: pending and
// canceled ones never block a range. Run it inside the unit of work that
// acts on the answer.
type Oracle struct {
	Now func() time.Time
}

func (o Oracle) IsAvailable(ctx context.Context, reservations reservation.Repository, req Request) (bool, error) {
	if err := req.Range.Validate(); err != nil {
		return false, err
	}
	if req.Range.StartsBefore(o.now()) {
		return false, nil
	}
	confirmed, err := reservations.ConfirmedOverlapping(ctx, req.PropertyID, req.Range, req.Exclude)
	if err != nil {
		return false, err
	}
	for _, r := range confirmed {
		if r.ID == req.Exclude || r.Status != reservation.StatusConfirmed {
			continue
		}
		if r.PropertyID == req.PropertyID && r.Range.Overlaps(req.Range) {
			return false, nil
		}
	}
	return true, nil
}

func (o Oracle) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}
