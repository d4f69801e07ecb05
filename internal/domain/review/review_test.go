package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/reservation"
	"staybook/internal/domain/user"
)

var finishedAt = time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)

func finished() *reservation.Reservation {
	return &reservation.Reservation{
		ID:         "r1",
		CustomerID: "guest",
		PropertyID: "p1",
		Status:     reservation.StatusFinished,
		FinishedAt: finishedAt,
	}
}

func TestClampRating(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: 0, want: 5},
		{in: 9, want: 5},
		{in: -3, want: 1},
		{in: 1, want: 1},
		{in: 4, want: 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampRating(tt.in), tt.in)
	}
}

func TestSubmit(t *testing.T) {
	r, err := Submit(SubmitParams{ID: "rv1", Reservation: finished(), AuthorID: "guest", Rating: 7, Comment: "  great  ", Now: finishedAt.Add(time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 5, r.Rating)
	assert.Equal(t, "great", r.Comment)
	assert.Equal(t, finishedAt.Add(EditWindow), r.WindowEndsAt)
	require.Len(t, r.PendingEvents(), 1)
}

func TestSubmitPreconditions(t *testing.T) {
	confirmed := finished()
	confirmed.Status = reservation.StatusConfirmed

	tests := []struct {
		name   string
		params SubmitParams
		want   error
	}{
		{name: "no reservation", params: SubmitParams{AuthorID: "guest"}, want: ErrMissingReference},
		{name: "not finished", params: SubmitParams{Reservation: confirmed, AuthorID: "guest", Now: finishedAt}, want: ErrNotFinished},
		{name: "not author", params: SubmitParams{Reservation: finished(), AuthorID: "host", Now: finishedAt}, want: ErrNotAuthor},
		{name: "window closed", params: SubmitParams{Reservation: finished(), AuthorID: "guest", Now: finishedAt.Add(EditWindow + time.Minute)}, want: ErrWindowClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Submit(tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEditAndRemove(t *testing.T) {
	r, err := Submit(SubmitParams{ID: "rv1", Reservation: finished(), AuthorID: "guest", Rating: 4, Now: finishedAt})
	require.NoError(t, err)
	author := user.Principal{UserID: "guest"}

	prev, err := r.Edit(author, 2, "meh", finishedAt.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, prev)
	assert.Equal(t, 2, r.Rating)

	_, err = r.Edit(user.Principal{UserID: "someone"}, 3, "", finishedAt)
	assert.ErrorIs(t, err, ErrNotAuthor)

	assert.ErrorIs(t, r.Remove(author, finishedAt.Add(8*24*time.Hour)), ErrWindowClosed)
	assert.NoError(t, r.Remove(author, finishedAt.Add(6*24*time.Hour)))
	assert.NoError(t, r.Remove(user.Principal{UserID: "ops", Role: user.RoleAdmin}, finishedAt.Add(30*24*time.Hour)))
}
