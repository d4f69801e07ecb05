package memory

import (
	"context"
	"sort"

	"staybook/internal/domain/compensation"
	"staybook/internal/domain/notification"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/review"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/user"
)

func cloneReservation(r *reservation.Reservation) *reservation.Reservation {
	c := *r
	c.ClearEvents()
	return &c
}

func stampReservation(r *reservation.Reservation, v int64) { r.Version = v }

func cloneProperty(p *property.Property) *property.Property {
	c := *p
	return &c
}

func stampProperty(p *property.Property, v int64) { p.Version = v }

func cloneReview(r *review.Review) *review.Review {
	c := *r
	c.ClearEvents()
	return &c
}

func cloneAccount(a *user.Account) *user.Account {
	c := *a
	return &c
}

func stampAccount(a *user.Account, v int64) { a.Version = v }

func cloneNotification(n *notification.Notification) *notification.Notification {
	c := *n
	return &c
}

func cloneTask(t *compensation.Task) *compensation.Task {
	c := *t
	return &c
}

type reservationRepo struct {
	v     *view[*reservation.Reservation]
	guard func() error
}

func (r reservationRepo) ByID(_ context.Context, id reservation.ID) (*reservation.Reservation, error) {
	res, ok := r.v.get(string(id))
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return res, nil
}

func (r reservationRepo) ByPaymentToken(_ context.Context, token string) (*reservation.Reservation, error) {
	if token == "" {
		return nil, reservation.ErrNotFound
	}
	found := r.v.scan(func(res *reservation.Reservation) bool { return res.PaymentToken == token })
	if len(found) == 0 {
		return nil, reservation.ErrNotFound
	}
	return found[0], nil
}

func (r reservationRepo) ConfirmedOverlapping(_ context.Context, propertyID property.ID, dr daterange.DateRange, exclude reservation.ID) ([]*reservation.Reservation, error) {
	return r.v.scan(func(res *reservation.Reservation) bool {
		return res.PropertyID == propertyID &&
			res.ID != exclude &&
			res.Status == reservation.StatusConfirmed &&
			res.Range.Overlaps(dr)
	}), nil
}

func (r reservationRepo) ListByCustomer(_ context.Context, customerID string, statuses ...reservation.Status) ([]*reservation.Reservation, error) {
	out := r.v.scan(func(res *reservation.Reservation) bool {
		return res.CustomerID == customerID && hasStatus(res.Status, statuses)
	})
	sortByStart(out)
	return out, nil
}

func (r reservationRepo) ListByProperty(_ context.Context, propertyID property.ID, statuses ...reservation.Status) ([]*reservation.Reservation, error) {
	out := r.v.scan(func(res *reservation.Reservation) bool {
		return res.PropertyID == propertyID && hasStatus(res.Status, statuses)
	})
	sortByStart(out)
	return out, nil
}

func (r reservationRepo) Save(_ context.Context, res *reservation.Reservation) error {
	if err := r.guard(); err != nil {
		return err
	}
	if res.ID == "" {
		return reservation.ErrMissingField
	}
	r.v.put(string(res.ID), res)
	return nil
}

func (r reservationRepo) Delete(_ context.Context, id reservation.ID) error {
	if err := r.guard(); err != nil {
		return err
	}
	if !r.v.exists(string(id)) {
		return reservation.ErrNotFound
	}
	r.v.del(string(id))
	return nil
}

func hasStatus(s reservation.Status, statuses []reservation.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, want := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

func sortByStart(rs []*reservation.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Range.Start.Equal(rs[j].Range.Start) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].Range.Start.Before(rs[j].Range.Start)
	})
}

type propertyRepo struct {
	v     *view[*property.Property]
	guard func() error
}

func (r propertyRepo) ByID(_ context.Context, id property.ID) (*property.Property, error) {
	p, ok := r.v.get(string(id))
	if !ok {
		return nil, property.ErrNotFound
	}
	return p, nil
}

func (r propertyRepo) Save(_ context.Context, p *property.Property) error {
	if err := r.guard(); err != nil {
		return err
	}
	r.v.put(string(p.ID), p)
	return nil
}

type reviewRepo struct {
	v     *view[*review.Review]
	guard func() error
}

func (r reviewRepo) ByID(_ context.Context, id review.ID) (*review.Review, error) {
	rv, ok := r.v.get(string(id))
	if !ok {
		return nil, review.ErrNotFound
	}
	return rv, nil
}

func (r reviewRepo) ByReservation(_ context.Context, id reservation.ID) (*review.Review, error) {
	found := r.v.scan(func(rv *review.Review) bool { return rv.ReservationID == id })
	if len(found) == 0 {
		return nil, review.ErrNotFound
	}
	return found[0], nil
}

func (r reviewRepo) ListByProperty(_ context.Context, id property.ID) ([]*review.Review, error) {
	out := r.v.scan(func(rv *review.Review) bool { return rv.PropertyID == id })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r reviewRepo) Save(_ context.Context, rv *review.Review) error {
	if err := r.guard(); err != nil {
		return err
	}
	r.v.put(string(rv.ID), rv)
	return nil
}

func (r reviewRepo) Delete(_ context.Context, id review.ID) error {
	if err := r.guard(); err != nil {
		return err
	}
	if !r.v.exists(string(id)) {
		return review.ErrNotFound
	}
	r.v.del(string(id))
	return nil
}

type accountRepo struct {
	v     *view[*user.Account]
	guard func() error
}

func (r accountRepo) ByID(_ context.Context, id string) (*user.Account, error) {
	a, ok := r.v.get(id)
	if !ok {
		return nil, user.ErrNotFound
	}
	return a, nil
}

func (r accountRepo) Save(_ context.Context, a *user.Account) error {
	if err := r.guard(); err != nil {
		return err
	}
	if a.ID == "" {
		return user.ErrIDRequired
	}
	r.v.put(a.ID, a)
	return nil
}

type notificationRepo struct {
	v     *view[*notification.Notification]
	guard func() error
}

func (r notificationRepo) Add(ctx context.Context, n *notification.Notification) error {
	return r.Save(ctx, n)
}

func (r notificationRepo) ByID(_ context.Context, id notification.ID) (*notification.Notification, error) {
	n, ok := r.v.get(string(id))
	if !ok {
		return nil, notification.ErrNotFound
	}
	return n, nil
}

func (r notificationRepo) ListByUser(_ context.Context, userID string, limit int) ([]*notification.Notification, error) {
	out := r.v.scan(func(n *notification.Notification) bool { return n.UserID == userID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r notificationRepo) Save(_ context.Context, n *notification.Notification) error {
	if err := r.guard(); err != nil {
		return err
	}
	r.v.put(string(n.ID), n)
	return nil
}

type taskQueue struct {
	v     *view[*compensation.Task]
	guard func() error
}

// Enqueue keeps the first task recorded for an ID.
func (q taskQueue) Enqueue(_ context.Context, t *compensation.Task) error {
	if err := q.guard(); err != nil {
		return err
	}
	if q.v.exists(t.ID) {
		return nil
	}
	q.v.put(t.ID, t)
	return nil
}
