// Package reviews handles stay reviews. Every change to a review updates the
// property's rating aggregate in the same unit of work.
package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/counters"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/review"
	"staybook/internal/domain/user"
)

const (
	submitKey = "reviews.submit"
	updateKey = "reviews.update"
	deleteKey = "reviews.delete"
)

type SubmitCommand struct {
	Actor         user.Principal
	ReservationID string `validate:"required"`
	Rating        int
	Comment       string `validate:"max=2000"`
}

func (c SubmitCommand) Key() string               { return submitKey }
func (c SubmitCommand) Principal() user.Principal { return c.Actor }

type UpdateCommand struct {
	Actor    user.Principal
	ReviewID string `validate:"required"`
	Rating   int
	Comment  string `validate:"max=2000"`
}

func (c UpdateCommand) Key() string               { return updateKey }
func (c UpdateCommand) Principal() user.Principal { return c.Actor }

type DeleteCommand struct {
	Actor    user.Principal
	ReviewID string `validate:"required"`
}

func (c DeleteCommand) Key() string               { return deleteKey }
func (c DeleteCommand) Principal() user.Principal { return c.Actor }

type Handler struct {
	Counters counters.Updater
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	NewID    func() string
	Now      func() time.Time
}

func (h *Handler) Submit(ctx context.Context, cmd SubmitCommand) (dto.ReviewResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return dto.ReviewResult{}, err
	}
	res, err := unit.Reservations().ByID(ctx, reservation.ID(cmd.ReservationID))
	if err != nil {
		return dto.ReviewResult{}, err
	}
	existing, err := unit.Reviews().ByReservation(ctx, res.ID)
	switch {
	case err == nil && existing != nil:
		return dto.ReviewResult{}, review.ErrDuplicate
	case err != nil && !errors.Is(err, review.ErrNotFound):
		return dto.ReviewResult{}, err
	}
	rv, err := review.Submit(review.SubmitParams{
		ID:          review.ID(h.newID()),
		Reservation: res,
		AuthorID:    cmd.Actor.UserID,
		Rating:      cmd.Rating,
		Comment:     cmd.Comment,
		Now:         support.Now(h.Now),
	})
	if err != nil {
		return dto.ReviewResult{}, err
	}
	if err := unit.Reviews().Save(ctx, rv); err != nil {
		return dto.ReviewResult{}, err
	}
	if err := h.Counters.RatingAdded(ctx, unit, rv.PropertyID, rv.Rating); err != nil {
		return dto.ReviewResult{}, err
	}
	return h.finish(ctx, unit, rv)
}

func (h *Handler) Update(ctx context.Context, cmd UpdateCommand) (dto.ReviewResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return dto.ReviewResult{}, err
	}
	rv, err := unit.Reviews().ByID(ctx, review.ID(cmd.ReviewID))
	if err != nil {
		return dto.ReviewResult{}, err
	}
	previous, err := rv.Edit(cmd.Actor, cmd.Rating, cmd.Comment, support.Now(h.Now))
	if err != nil {
		return dto.ReviewResult{}, err
	}
	if err := unit.Reviews().Save(ctx, rv); err != nil {
		return dto.ReviewResult{}, err
	}
	if previous != rv.Rating {
		if err := h.Counters.RatingReplaced(ctx, unit, rv.PropertyID, previous, rv.Rating); err != nil {
			return dto.ReviewResult{}, err
		}
	}
	return h.finish(ctx, unit, rv)
}

func (h *Handler) Delete(ctx context.Context, cmd DeleteCommand) (dto.RatingSummary, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return dto.RatingSummary{}, err
	}
	rv, err := unit.Reviews().ByID(ctx, review.ID(cmd.ReviewID))
	if err != nil {
		return dto.RatingSummary{}, err
	}
	if err := rv.Remove(cmd.Actor, support.Now(h.Now)); err != nil {
		return dto.RatingSummary{}, err
	}
	if err := unit.Reviews().Delete(ctx, rv.ID); err != nil {
		return dto.RatingSummary{}, err
	}
	if err := h.Counters.RatingRemoved(ctx, unit, rv.PropertyID, rv.Rating); err != nil {
		return dto.RatingSummary{}, err
	}
	if err := outbox.RecordFrom(ctx, h.Outbox, h.Encoder, rv); err != nil {
		return dto.RatingSummary{}, err
	}
	prop, err := unit.Properties().ByID(ctx, rv.PropertyID)
	if err != nil {
		return dto.RatingSummary{}, err
	}
	h.logger().Info("review deleted", "review_id", string(rv.ID), "property_id", string(rv.PropertyID), "actor", cmd.Actor.UserID)
	return dto.MapRating(prop), nil
}

func (h *Handler) finish(ctx context.Context, unit uow.UnitOfWork, rv *review.Review) (dto.ReviewResult, error) {
	if err := outbox.RecordFrom(ctx, h.Outbox, h.Encoder, rv); err != nil {
		return dto.ReviewResult{}, err
	}
	prop, err := unit.Properties().ByID(ctx, rv.PropertyID)
	if err != nil {
		return dto.ReviewResult{}, err
	}
	return dto.ReviewResult{Review: dto.MapReview(rv), Rating: dto.MapRating(prop)}, nil
}

func (h *Handler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler(bus, submitKey, commands.HandlerFunc[SubmitCommand, dto.ReviewResult](h.Submit))
	commands.RegisterHandler(bus, updateKey, commands.HandlerFunc[UpdateCommand, dto.ReviewResult](h.Update))
	commands.RegisterHandler(bus, deleteKey, commands.HandlerFunc[DeleteCommand, dto.RatingSummary](h.Delete))
}
