package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var today = date(2025, 5, 20).Add(9 * time.Hour)

func stay(t *testing.T, start, end time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(start, end)
	require.NoError(t, err)
	return dr
}

func pending(t *testing.T) *Reservation {
	t.Helper()
	r, err := NewPending(CreateParams{
		ID:         "r1",
		CustomerID: "guest",
		PropertyID: "p1",
		Range:      stay(t, date(2025, 6, 1), date(2025, 6, 4)),
		RentFee:    money.Must(100, "ILS"),
		Now:        today,
	})
	require.NoError(t, err)
	return r
}

func TestNewPendingPricesWholeDays(t *testing.T) {
	r := pending(t)

	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, money.Must(300, "ILS"), r.TotalFee)
	assert.Empty(t, r.PaymentToken)

	evs := r.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "reservation.requested", evs[0].EventName())
}

func TestNewPendingValidation(t *testing.T) {
	tests := []struct {
		name   string
		params CreateParams
		want   error
	}{
		{
			name:   "missing customer",
			params: CreateParams{ID: "r", PropertyID: "p", Range: stay(t, date(2025, 6, 1), date(2025, 6, 2)), RentFee: money.Must(1, "ILS"), Now: today},
			want:   ErrMissingField,
		},
		{
			name:   "zero range",
			params: CreateParams{ID: "r", CustomerID: "c", PropertyID: "p", RentFee: money.Must(1, "ILS"), Now: today},
			want:   ErrInvalidDateRange,
		},
		{
			name:   "start in the past",
			params: CreateParams{ID: "r", CustomerID: "c", PropertyID: "p", Range: stay(t, date(2025, 5, 19), date(2025, 5, 22)), RentFee: money.Must(1, "ILS"), Now: today},
			want:   ErrInvalidDateRange,
		},
		{
			name:   "zero fee",
			params: CreateParams{ID: "r", CustomerID: "c", PropertyID: "p", Range: stay(t, date(2025, 6, 1), date(2025, 6, 2)), RentFee: money.Must(0, "ILS"), Now: today},
			want:   ErrInvalidFee,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPending(tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStartTodayIsAllowed(t *testing.T) {
	_, err := NewPending(CreateParams{
		ID: "r", CustomerID: "c", PropertyID: "p",
		Range:   stay(t, date(2025, 5, 20), date(2025, 5, 21)),
		RentFee: money.Must(10, "ILS"),
		Now:     today,
	})
	assert.NoError(t, err)
}

func TestPaymentTokenIsWriteOnce(t *testing.T) {
	r := pending(t)
	require.NoError(t, r.AttachPaymentToken("pi_1", today))
	assert.ErrorIs(t, r.AttachPaymentToken("pi_2", today), ErrTokenAssigned)
	assert.Equal(t, "pi_1", r.PaymentToken)
}

func TestTransitions(t *testing.T) {
	afterStay := date(2025, 6, 4).Add(time.Hour)

	t.Run("confirm then finish", func(t *testing.T) {
		r := pending(t)
		require.NoError(t, r.Confirm(today))
		assert.ErrorIs(t, r.Confirm(today), ErrInvalidTransition)
		assert.ErrorIs(t, r.Cancel(ReasonCustomerCanceled, today), ErrInvalidTransition)
		assert.ErrorIs(t, r.Finish(date(2025, 6, 3)), ErrInvalidTransition)

		require.NoError(t, r.Finish(afterStay))
		assert.Equal(t, StatusFinished, r.Status)
		assert.Equal(t, afterStay, r.FinishedAt)
		assert.ErrorIs(t, r.MarkDeleted(afterStay), ErrInvalidTransition)
	})

	t.Run("cancel pending", func(t *testing.T) {
		r := pending(t)
		require.NoError(t, r.Cancel(ReasonDatesUnavailable, today))
		assert.Equal(t, ReasonDatesUnavailable, r.CancelReason)
		assert.ErrorIs(t, r.Confirm(today), ErrInvalidTransition)
		assert.ErrorIs(t, r.Finish(afterStay), ErrInvalidTransition)
		assert.NoError(t, r.MarkDeleted(today))
	})

	t.Run("pending can be deleted", func(t *testing.T) {
		r := pending(t)
		assert.NoError(t, r.MarkDeleted(today))
	})
}

func TestActsFor(t *testing.T) {
	r := pending(t)
	assert.True(t, r.ActsFor(user.Principal{UserID: "guest"}))
	assert.True(t, r.ActsFor(user.Principal{UserID: "ops", Role: user.RoleAdmin}))
	assert.False(t, r.ActsFor(user.Principal{UserID: "other"}))
	assert.False(t, r.ActsFor(user.Principal{}))
}

func TestSetPoints(t *testing.T) {
	r := pending(t)
	require.NoError(t, r.SetPoints(30, 10, today))
	assert.EqualValues(t, 30, r.UserPoints)
	assert.ErrorIs(t, r.SetPoints(-1, 0, today), ErrInvalidPoints)
}
