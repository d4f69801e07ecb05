package review

import (
	"context"
	"strings"
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/failure"
	"staybook/internal/domain/user"
)

// EditWindow bounds how long after a stay finished a review may be written or changed.
const EditWindow = 7 * 24 * time.Hour

var (
	ErrNotFound         = failure.New(failure.KindNotFound, "review: not found")
	ErrDuplicate        = failure.New(failure.KindStateConflict, "review: reservation already reviewed")
	ErrNotFinished      = failure.New(failure.KindStateConflict, "review: reservation is not finished")
	ErrWindowClosed     = failure.New(failure.KindStateConflict, "review: review window has closed")
	ErrNotAuthor        = failure.New(failure.KindAuthorization, "review: only the reservation customer may review")
	ErrMissingReference = failure.New(failure.KindValidation, "review: reservation is required")
)

type ID string

type Review struct {
	ID            ID
	ReservationID reservation.ID
	PropertyID    property.ID
	AuthorID      string
	Rating        int
	Comment       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	// WindowEndsAt is copied from the reservation finish time plus EditWindow.
	WindowEndsAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Review, error)
	ByReservation(ctx context.Context, id reservation.ID) (*Review, error)
	ListByProperty(ctx context.Context, id property.ID) ([]*Review, error)
	Save(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id ID) error
}

// ClampRating maps a missing or too large rating to 5 and a negative one to 1.
func ClampRating(r int) int {
	switch {
	case r == 0 || r > 5:
		return 5
	case r < 1:
		return 1
	default:
		return r
	}
}

type SubmitParams struct {
	ID          ID
	Reservation *reservation.Reservation
	AuthorID    string
	Rating      int
	Comment     string
	Now         time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	res := params.Reservation
	if res == nil {
		return nil, ErrMissingReference
	}
	if res.Status != reservation.StatusFinished {
		return nil, ErrNotFinished
	}
	if params.AuthorID == "" || params.AuthorID != res.CustomerID {
		return nil, ErrNotAuthor
	}
	now := params.Now.UTC()
	windowEnd := res.FinishedAt.Add(EditWindow)
	if now.After(windowEnd) {
		return nil, ErrWindowClosed
	}
	r := &Review{
		ID:            params.ID,
		ReservationID: res.ID,
		PropertyID:    res.PropertyID,
		AuthorID:      params.AuthorID,
		Rating:        ClampRating(params.Rating),
		Comment:       strings.TrimSpace(params.Comment),
		CreatedAt:     now,
		UpdatedAt:     now,
		WindowEndsAt:  windowEnd,
	}
	r.Record(Submitted{ReviewID: r.ID, ReservationID: r.ReservationID, PropertyID: r.PropertyID, Rating: r.Rating, At: now})
	return r, nil
}

// Edit replaces rating and comment and returns the rating it replaced.
func (r *Review) Edit(actor user.Principal, rating int, comment string, now time.Time) (int, error) {
	if err := r.checkMutable(actor, now); err != nil {
		return 0, err
	}
	previous := r.Rating
	r.Rating = ClampRating(rating)
	r.Comment = strings.TrimSpace(comment)
	r.UpdatedAt = now.UTC()
	r.Record(Updated{ReviewID: r.ID, PropertyID: r.PropertyID, PreviousRating: previous, Rating: r.Rating, At: r.UpdatedAt})
	return previous, nil
}

// Remove records the deletion. Administrators may remove a review at any
// time; the author only inside the edit window.
func (r *Review) Remove(actor user.Principal, now time.Time) error {
	if !actor.IsAdmin() {
		if err := r.checkMutable(actor, now); err != nil {
			return err
		}
	}
	r.Record(Deleted{ReviewID: r.ID, PropertyID: r.PropertyID, Rating: r.Rating, At: now.UTC()})
	return nil
}

func (r *Review) checkMutable(actor user.Principal, now time.Time) error {
	if actor.UserID == "" || actor.UserID != r.AuthorID {
		return ErrNotAuthor
	}
	if now.UTC().After(r.WindowEndsAt) {
		return ErrWindowClosed
	}
	return nil
}
