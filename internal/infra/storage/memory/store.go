package memory

import (
	"context"
	"errors"
	"sync"

	"staybook/internal/app/uow"
	"staybook/internal/domain/compensation"
	"staybook/internal/domain/notification"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/review"
	"staybook/internal/domain/user"
)

var (
	ErrUnitClosed = errors.New("memory: unit of work already finished")
	ErrReadOnly   = errors.New("memory: write in read-only unit of work")
)

type row[V any] struct {
	value   V
	version int64
}

// table is a committed collection guarded by Store.mu.
type table[V any] struct {
	rows map[string]row[V]
}

func newTable[V any]() *table[V] {
	return &table[V]{rows: make(map[string]row[V])}
}

// Store keeps committed state for every aggregate. Units read committed rows
// and buffer their writes; Commit applies them only when none of the written
// rows changed since the unit first saw them (first committer wins).
type Store struct {
	mu            sync.RWMutex
	reservations  *table[*reservation.Reservation]
	properties    *table[*property.Property]
	reviews       *table[*review.Review]
	accounts      *table[*user.Account]
	notifications *table[*notification.Notification]
	compensations *table[*compensation.Task]
}

func NewStore() *Store {
	return &Store{
		reservations:  newTable[*reservation.Reservation](),
		properties:    newTable[*property.Property](),
		reviews:       newTable[*review.Review](),
		accounts:      newTable[*user.Account](),
		notifications: newTable[*notification.Notification](),
		compensations: newTable[*compensation.Task](),
	}
}

// SeedProperty stores p directly, outside any unit. Used for fixtures.
func (s *Store) SeedProperty(p *property.Property) {
	seed(s, s.properties, string(p.ID), cloneProperty(p))
}

func (s *Store) SeedAccount(a *user.Account) {
	seed(s, s.accounts, a.ID, cloneAccount(a))
}

func (s *Store) SeedReservation(r *reservation.Reservation) {
	seed(s, s.reservations, string(r.ID), cloneReservation(r))
}

func seed[V any](s *Store, t *table[V], key string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.rows[key] = row[V]{value: v, version: t.rows[key].version + 1}
}

// Factory begins units over a Store.
type Factory struct {
	Store *Store
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

func (f Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	s := f.Store
	return &Unit{
		store:         s,
		readOnly:      opts.ReadOnly,
		reservations:  newView(s, s.reservations, cloneReservation, stampReservation),
		properties:    newView(s, s.properties, cloneProperty, stampProperty),
		reviews:       newView(s, s.reviews, cloneReview, nil),
		accounts:      newView(s, s.accounts, cloneAccount, stampAccount),
		notifications: newView(s, s.notifications, cloneNotification, nil),
		compensations: newView(s, s.compensations, cloneTask, nil),
	}, nil
}

type Unit struct {
	uow.Hooks
	store    *Store
	readOnly bool
	done     bool

	reservations  *view[*reservation.Reservation]
	properties    *view[*property.Property]
	reviews       *view[*review.Review]
	accounts      *view[*user.Account]
	notifications *view[*notification.Notification]
	compensations *view[*compensation.Task]
}

func (u *Unit) Reservations() reservation.Repository {
	return reservationRepo{v: u.reservations, guard: u.writable}
}

func (u *Unit) Properties() property.Repository {
	return propertyRepo{v: u.properties, guard: u.writable}
}

func (u *Unit) Reviews() review.Repository {
	return reviewRepo{v: u.reviews, guard: u.writable}
}

func (u *Unit) Accounts() user.Repository {
	return accountRepo{v: u.accounts, guard: u.writable}
}

func (u *Unit) Notifications() notification.Repository {
	return notificationRepo{v: u.notifications, guard: u.writable}
}

func (u *Unit) Compensations() compensation.Queue {
	return taskQueue{v: u.compensations, guard: u.writable}
}

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (u *Unit) views() []committer {
	return []committer{u.reservations, u.properties, u.reviews, u.accounts, u.notifications, u.compensations}
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true

	u.store.mu.Lock()
	dirty := false
	for _, v := range u.views() {
		dirty = dirty || v.dirty()
	}
	ok := !dirty || u.reviewsUnique()
	for _, v := range u.views() {
		if !ok {
			break
		}
		ok = v.valid(dirty)
	}
	if !ok {
		u.store.mu.Unlock()
		u.RunRolledBack(ctx)
		return uow.ErrConflict
	}
	for _, v := range u.views() {
		v.apply()
	}
	u.store.mu.Unlock()

	u.RunCommitted(ctx)
	return nil
}

// reviewsUnique reports whether every review this unit adds is the only one
// for its reservation. Called with the store lock held.
func (u *Unit) reviewsUnique() bool {
	for key, w := range u.reviews.writes {
		if w.deleted {
			continue
		}
		for other, r := range u.store.reviews.rows {
			if other == key || r.value.ReservationID != w.value.ReservationID {
				continue
			}
			if pending, ok := u.reviews.writes[other]; ok && pending.deleted {
				continue
			}
			return false
		}
	}
	return true
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.RunRolledBack(ctx)
	return nil
}

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.UoWFactory = Factory{}

type committer interface {
	dirty() bool
	valid(checkReads bool) bool
	apply()
}

type write[V any] struct {
	value   V
	deleted bool
	base    int64
}

// view is one unit's window onto a table: the rows as it first read them,
// and its pending writes. Rereading a row returns the first read, so a unit
// never mixes two committed versions of the same row.
type view[V any] struct {
	store  *Store
	table  *table[V]
	clone  func(V) V
	stamp  func(V, int64)
	seen   map[string]row[V]
	writes map[string]write[V]
}

func newView[V any](s *Store, t *table[V], clone func(V) V, stamp func(V, int64)) *view[V] {
	return &view[V]{
		store:  s,
		table:  t,
		clone:  clone,
		stamp:  stamp,
		seen:   make(map[string]row[V]),
		writes: make(map[string]write[V]),
	}
}

func (v *view[V]) get(key string) (V, bool) {
	var zero V
	if w, ok := v.writes[key]; ok {
		if w.deleted {
			return zero, false
		}
		return v.clone(w.value), true
	}
	if r, ok := v.seen[key]; ok {
		return v.copyOf(r), true
	}
	v.store.mu.RLock()
	r, ok := v.table.rows[key]
	v.store.mu.RUnlock()
	if !ok {
		return zero, false
	}
	v.seen[key] = r
	return v.copyOf(r), true
}

func (v *view[V]) copyOf(r row[V]) V {
	out := v.clone(r.value)
	if v.stamp != nil {
		v.stamp(out, r.version)
	}
	return out
}

// scan returns copies of every visible row matching keep, pending writes
// included.
func (v *view[V]) scan(keep func(V) bool) []V {
	var out []V
	fresh := make(map[string]row[V])
	v.store.mu.RLock()
	for k, r := range v.table.rows {
		if _, pending := v.writes[k]; pending {
			continue
		}
		if _, ok := v.seen[k]; ok {
			continue
		}
		if keep(r.value) {
			fresh[k] = r
		}
	}
	v.store.mu.RUnlock()
	for k, r := range v.seen {
		if _, pending := v.writes[k]; !pending && keep(r.value) {
			out = append(out, v.copyOf(r))
		}
	}
	for k, r := range fresh {
		v.seen[k] = r
		out = append(out, v.copyOf(r))
	}
	for _, w := range v.writes {
		if !w.deleted && keep(w.value) {
			out = append(out, v.clone(w.value))
		}
	}
	return out
}

func (v *view[V]) exists(key string) bool {
	_, ok := v.get(key)
	return ok
}

func (v *view[V]) put(key string, val V) {
	v.writes[key] = write[V]{value: v.clone(val), base: v.baseVersion(key)}
}

func (v *view[V]) del(key string) {
	v.writes[key] = write[V]{deleted: true, base: v.baseVersion(key)}
}

func (v *view[V]) baseVersion(key string) int64 {
	if w, ok := v.writes[key]; ok {
		return w.base
	}
	if r, ok := v.seen[key]; ok {
		return r.version
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return v.table.rows[key].version
}

func (v *view[V]) dirty() bool { return len(v.writes) > 0 }

// valid reports whether every written row, and with checkReads every row the
// unit read, is still at the version the unit saw.
func (v *view[V]) valid(checkReads bool) bool {
	for key, w := range v.writes {
		if v.table.rows[key].version != w.base {
			return false
		}
	}
	if !checkReads {
		return true
	}
	for key, r := range v.seen {
		if _, written := v.writes[key]; written {
			continue
		}
		cur, ok := v.table.rows[key]
		if !ok || cur.version != r.version {
			return false
		}
	}
	return true
}

func (v *view[V]) apply() {
	for key, w := range v.writes {
		if w.deleted {
			delete(v.table.rows, key)
			continue
		}
		val := w.value
		if v.stamp != nil {
			v.stamp(val, w.base+1)
		}
		v.table.rows[key] = row[V]{value: val, version: w.base + 1}
	}
}
