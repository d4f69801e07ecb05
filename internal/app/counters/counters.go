// Package counters maintains the denormalized property aggregates. Every
// update goes through the caller's unit of work so it commits or rolls back
// with the transition that caused it.
package counters

import (
	"context"
	"time"

	"staybook/internal/app/uow"
	"staybook/internal/domain/property"
)

type Updater struct {
	Now func() time.Time
}

// ReservationConfirmed bumps the property's reservation count. The write
// also makes two confirmations of the same property in concurrent units
// conflict with each other.
func (u Updater) ReservationConfirmed(ctx context.Context, unit uow.UnitOfWork, id property.ID) error {
	return u.update(ctx, unit, id, func(p *property.Property, now time.Time) error {
		p.RecordReservation(now)
		return nil
	})
}

func (u Updater) RatingAdded(ctx context.Context, unit uow.UnitOfWork, id property.ID, rating int) error {
	return u.update(ctx, unit, id, func(p *property.Property, now time.Time) error {
		return p.AddRating(rating, now)
	})
}

func (u Updater) RatingRemoved(ctx context.Context, unit uow.UnitOfWork, id property.ID, rating int) error {
	return u.update(ctx, unit, id, func(p *property.Property, now time.Time) error {
		return p.RemoveRating(rating, now)
	})
}

func (u Updater) RatingReplaced(ctx context.Context, unit uow.UnitOfWork, id property.ID, previous, next int) error {
	return u.update(ctx, unit, id, func(p *property.Property, now time.Time) error {
		return p.ReplaceRating(previous, next, now)
	})
}

func (u Updater) update(ctx context.Context, unit uow.UnitOfWork, id property.ID, fn func(*property.Property, time.Time) error) error {
	if unit == nil {
		return uow.ErrUnitOfWorkMissing
	}
	p, err := unit.Properties().ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(p, u.now()); err != nil {
		return err
	}
	return unit.Properties().Save(ctx, p)
}

func (u Updater) now() time.Time {
	if u.Now != nil {
		return u.Now().UTC()
	}
	return time.Now().UTC()
}
