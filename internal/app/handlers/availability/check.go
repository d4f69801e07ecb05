package availability

import (
	"context"
	"time"

	appavailability "staybook/internal/app/availability"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/failure"
)

const checkKey = "availability.check"

type CheckQuery struct {
	PropertyID string    `validate:"required"`
	StartDate  time.Time `validate:"required"`
	EndDate    time.Time `validate:"required,gtfield=StartDate"`
}

func (q CheckQuery) Key() string { return checkKey }

// CheckHandler answers whether a range is free and lists the confirmed stays
// inside it.
type CheckHandler struct {
	UoWFactory uow.UoWFactory
	Oracle     appavailability.Oracle
}

func (h *CheckHandler) Handle(ctx context.Context, q CheckQuery) (dto.Availability, error) {
	unit, ctx, release, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	defer release()

	dr, err := daterange.New(q.StartDate, q.EndDate)
	if err != nil {
		return dto.Availability{}, failure.Wrap(failure.KindValidation, err)
	}
	prop, err := unit.Properties().ByID(ctx, property.ID(q.PropertyID))
	if err != nil {
		return dto.Availability{}, err
	}
	free, err := h.Oracle.IsAvailable(ctx, unit.Reservations(), appavailability.Request{PropertyID: prop.ID, Range: dr})
	if err != nil {
		return dto.Availability{}, err
	}
	rs, err := unit.Reservations().ConfirmedOverlapping(ctx, prop.ID, dr, "")
	if err != nil {
		return dto.Availability{}, err
	}
	cal := domainavailability.Build(prop.ID, dr, rs)
	return dto.MapAvailability(cal, free && prop.Bookable()), nil
}

var _ queries.Handler[CheckQuery, dto.Availability] = (*CheckHandler)(nil)

func (h *CheckHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler(bus, checkKey, queries.HandlerFunc[CheckQuery, dto.Availability](h.Handle))
}
