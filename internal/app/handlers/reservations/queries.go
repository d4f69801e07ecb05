package reservations

import (
	"context"
	"sort"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/user"
)

const (
	getKey             = "reservations.get"
	listMineKey        = "reservations.list_mine"
	listForPropertyKey = "reservations.list_for_property"
)

type GetQuery struct {
	Actor         user.Principal
	ReservationID string `validate:"required"`
}

func (q GetQuery) Key() string               { return getKey }
func (q GetQuery) Principal() user.Principal { return q.Actor }

type ListMineQuery struct {
	Actor user.Principal
}

func (q ListMineQuery) Key() string               { return listMineKey }
func (q ListMineQuery) Principal() user.Principal { return q.Actor }

type ListForPropertyQuery struct {
	Actor      user.Principal
	PropertyID string `validate:"required"`
}

func (q ListForPropertyQuery) Key() string               { return listForPropertyKey }
func (q ListForPropertyQuery) Principal() user.Principal { return q.Actor }

// visible lists the statuses shown in reservation histories.
var visible = []reservation.Status{reservation.StatusConfirmed, reservation.StatusFinished}

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

// Get returns a reservation to its customer, the property owner or an
// administrator.
func (h *QueryHandler) Get(ctx context.Context, q GetQuery) (dto.Reservation, error) {
	unit, ctx, release, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Reservation{}, err
	}
	defer release()

	res, err := unit.Reservations().ByID(ctx, reservation.ID(q.ReservationID))
	if err != nil {
		return dto.Reservation{}, err
	}
	if !res.ActsFor(q.Actor) {
		prop, err := unit.Properties().ByID(ctx, res.PropertyID)
		if err != nil {
			return dto.Reservation{}, err
		}
		if prop.OwnerID != q.Actor.UserID {
			return dto.Reservation{}, ErrForbidden
		}
	}
	return dto.MapReservation(res), nil
}

func (h *QueryHandler) ListMine(ctx context.Context, q ListMineQuery) (dto.ReservationCollection, error) {
	unit, ctx, release, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	defer release()

	rs, err := unit.Reservations().ListByCustomer(ctx, q.Actor.UserID, visible...)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	newestFirst(rs)
	return dto.MapReservations(rs), nil
}

func (h *QueryHandler) ListForProperty(ctx context.Context, q ListForPropertyQuery) (dto.ReservationCollection, error) {
	unit, ctx, release, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	defer release()

	prop, err := unit.Properties().ByID(ctx, property.ID(q.PropertyID))
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if prop.OwnerID != q.Actor.UserID && !q.Actor.IsAdmin() {
		return dto.ReservationCollection{}, ErrForbidden
	}
	rs, err := unit.Reservations().ListByProperty(ctx, prop.ID, visible...)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	newestFirst(rs)
	return dto.MapReservations(rs), nil
}

func newestFirst(rs []*reservation.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
}

func (h *QueryHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler(bus, getKey, queries.HandlerFunc[GetQuery, dto.Reservation](h.Get))
	queries.RegisterHandler(bus, listMineKey, queries.HandlerFunc[ListMineQuery, dto.ReservationCollection](h.ListMine))
	queries.RegisterHandler(bus, listForPropertyKey, queries.HandlerFunc[ListForPropertyQuery, dto.ReservationCollection](h.ListForProperty))
}
