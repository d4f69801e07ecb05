package reviews_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/reviews"
	"staybook/internal/app/middleware"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/review"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
	"staybook/internal/infra/storage/memory"
	"staybook/internal/infra/validation"
)

var (
	author = user.Principal{UserID: "guest-1", Role: user.RoleCustomer}
	admin  = user.Principal{UserID: "admin-1", Role: user.RoleAdmin}
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setup(t *testing.T) (commands.Bus, *memory.Outbox, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	p, err := property.New(property.CreateParams{ID: "prop-1", OwnerID: "host-1", RentFee: money.Money{Amount: 100, Currency: "ILS"}, Now: clk.now})
	require.NoError(t, err)
	store.SeedProperty(p)

	for i, id := range []string{"res-1", "res-2", "res-3"} {
		start := time.Date(2026, 5, 1+i, 0, 0, 0, 0, time.UTC)
		dr, err := daterange.New(start, start.AddDate(0, 0, 2))
		require.NoError(t, err)
		store.SeedReservation(&reservation.Reservation{
			ID:         reservation.ID(id),
			CustomerID: author.UserID,
			PropertyID: "prop-1",
			Range:      dr,
			TotalFee:   money.Money{Amount: 200, Currency: "ILS"},
			Status:     reservation.StatusFinished,
			FinishedAt: clk.now.Add(-24 * time.Hour),
		})
	}
	store.SeedReservation(&reservation.Reservation{ID: "res-open", CustomerID: author.UserID, PropertyID: "prop-1", Status: reservation.StatusConfirmed})

	box := memory.NewOutbox()
	bus := commands.NewInMemoryBus()
	(&reviews.Handler{Outbox: box, Now: clk.Now}).Register(bus)
	return middleware.ChainCommands(bus,
		middleware.Validation(validation.New()),
		middleware.Authorization(middleware.PrincipalAuthorizer{}),
		middleware.Transaction(memory.Factory{Store: store}, nil),
		middleware.OutboxFlush(box),
	), box, clk
}

func submit(bus commands.Bus, actor user.Principal, resID string, rating int) (dto.ReviewResult, error) {
	return commands.Dispatch[reviews.SubmitCommand, dto.ReviewResult](context.Background(), bus, reviews.SubmitCommand{
		Actor: actor, ReservationID: resID, Rating: rating, Comment: "  lovely  ",
	})
}

func TestSubmitUpdatesRatingAggregate(t *testing.T) {
	bus, box, _ := setup(t)

	_, err := submit(bus, author, "res-1", 5)
	require.NoError(t, err)
	_, err = submit(bus, author, "res-2", 4)
	require.NoError(t, err)
	out, err := submit(bus, author, "res-3", 4)
	require.NoError(t, err)

	assert.InDelta(t, 4.333, out.Rating.AvgRating, 0.001)
	assert.Equal(t, int64(3), out.Rating.NumberOfRatings)
	assert.Equal(t, "lovely", out.Review.Comment)
	assert.Len(t, box.Records(), 3)
}

func TestSubmitClampsRating(t *testing.T) {
	bus, _, _ := setup(t)

	out, err := submit(bus, author, "res-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, out.Review.Rating)

	out, err = submit(bus, author, "res-2", -3)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Review.Rating)
}

func TestSubmitRules(t *testing.T) {
	bus, _, clk := setup(t)

	_, err := submit(bus, author, "res-open", 5)
	assert.ErrorIs(t, err, review.ErrNotFinished)

	_, err = submit(bus, user.Principal{UserID: "guest-2"}, "res-1", 5)
	assert.ErrorIs(t, err, review.ErrNotAuthor)

	_, err = submit(bus, author, "res-1", 5)
	require.NoError(t, err)
	_, err = submit(bus, author, "res-1", 3)
	assert.ErrorIs(t, err, review.ErrDuplicate)

	clk.now = clk.now.Add(review.EditWindow + time.Hour)
	_, err = submit(bus, author, "res-2", 5)
	assert.ErrorIs(t, err, review.ErrWindowClosed)
}

func TestUpdateAndDeleteRestoreAggregate(t *testing.T) {
	bus, _, clk := setup(t)
	first, err := submit(bus, author, "res-1", 5)
	require.NoError(t, err)
	_, err = submit(bus, author, "res-2", 3)
	require.NoError(t, err)

	updated, err := commands.Dispatch[reviews.UpdateCommand, dto.ReviewResult](context.Background(), bus, reviews.UpdateCommand{
		Actor: author, ReviewID: first.Review.ID, Rating: 1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, updated.Rating.AvgRating, 0.001)

	clk.now = clk.now.Add(review.EditWindow + time.Hour)
	_, err = commands.Dispatch[reviews.DeleteCommand, dto.RatingSummary](context.Background(), bus, reviews.DeleteCommand{Actor: author, ReviewID: first.Review.ID})
	assert.ErrorIs(t, err, review.ErrWindowClosed)

	summary, err := commands.Dispatch[reviews.DeleteCommand, dto.RatingSummary](context.Background(), bus, reviews.DeleteCommand{Actor: admin, ReviewID: first.Review.ID})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, summary.AvgRating, 0.001)
	assert.Equal(t, int64(1), summary.NumberOfRatings)
}
