package reconcile_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/compensate"
	"staybook/internal/app/notify"
	"staybook/internal/app/reconcile"
	"staybook/internal/app/uow"
	"staybook/internal/domain/compensation"
	"staybook/internal/domain/payment"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	paymemory "staybook/internal/infra/payments/memory"
	"staybook/internal/infra/storage/memory"
)

type sentMessage struct {
	UserID string
	Title  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{UserID: userID, Title: title})
	return nil
}

func (n *recordingNotifier) titlesFor(userID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.UserID == userID {
			out = append(out, m.Title)
		}
	}
	return out
}

type fixture struct {
	store      *memory.Store
	factory    memory.Factory
	payments   *paymemory.Processor
	tasks      memory.CompensationStore
	events     *memory.PaymentEventLog
	box        *memory.Outbox
	notifier   *recordingNotifier
	reconciler *reconcile.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	prop, err := property.New(property.CreateParams{
		ID:      "prop-1",
		OwnerID: "host-1",
		Title:   "Sea loft",
		RentFee: money.Money{Amount: 100, Currency: "ILS"},
		Now:     time.Now(),
	})
	require.NoError(t, err)
	store.SeedProperty(prop)

	f := &fixture{
		store:    store,
		factory:  memory.Factory{Store: store},
		payments: paymemory.NewProcessor(),
		tasks:    memory.CompensationStore{Store: store},
		events:   memory.NewPaymentEventLog(),
		box:      memory.NewOutbox(),
		notifier: &recordingNotifier{},
	}
	f.reconciler = &reconcile.Reconciler{
		UoWFactory:  f.factory,
		Compensator: &compensate.Executor{Payments: f.payments, Store: f.tasks},
		Notify:      &notify.Dispatcher{Notifier: f.notifier},
		Events:      f.events,
		Outbox:      f.box,
		Attempts:    5,
	}
	return f
}

// pending seeds a pending reservation with an open session and returns it
// with the outcome of paying that session.
func (f *fixture) pending(t *testing.T, id, customer string, propertyID property.ID, fromNow, nights int) (*reservation.Reservation, payment.Outcome) {
	t.Helper()
	start := daterange.Day(time.Now()).AddDate(0, 0, fromNow)
	dr, err := daterange.New(start, start.AddDate(0, 0, nights))
	require.NoError(t, err)
	res, err := reservation.NewPending(reservation.CreateParams{
		ID:         reservation.ID(id),
		CustomerID: customer,
		PropertyID: propertyID,
		Range:      dr,
		RentFee:    money.Money{Amount: 100, Currency: "ILS"},
		Now:        time.Now(),
	})
	require.NoError(t, err)
	session, err := f.payments.OpenSession(context.Background(), payment.SessionRequest{ReservationID: id, Amount: res.TotalFee})
	require.NoError(t, err)
	require.NoError(t, res.AttachPaymentToken(session.Token, time.Now()))
	res.ClearEvents()
	f.store.SeedReservation(res)
	outcome, err := f.payments.Pay(session.Token)
	require.NoError(t, err)
	return res, outcome
}

func (f *fixture) reservation(t *testing.T, id string) *reservation.Reservation {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(context.Background())
	res, err := unit.Reservations().ByID(context.Background(), reservation.ID(id))
	require.NoError(t, err)
	return res
}

func (f *fixture) property(t *testing.T) *property.Property {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(context.Background())
	p, err := unit.Properties().ByID(context.Background(), "prop-1")
	require.NoError(t, err)
	return p
}

func TestReconcileConfirmsPaidReservation(t *testing.T) {
	f := newFixture(t)
	_, outcome := f.pending(t, "res-1", "guest-1", "prop-1", 10, 3)

	decision, err := f.reconciler.Reconcile(context.Background(), outcome)
	require.NoError(t, err)
	assert.Equal(t, reconcile.DecisionConfirmed, decision)

	assert.Equal(t, reservation.StatusConfirmed, f.reservation(t, "res-1").Status)
	assert.Equal(t, int64(1), f.property(t).NumberOfReservations)
	assert.Equal(t, []string{"Payment succeeded"}, f.notifier.titlesFor("guest-1"))
	assert.Equal(t, []string{"New reservation"}, f.notifier.titlesFor("host-1"))

	records := f.box.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "reservation.confirmed", records[0].Name)
}

func TestReconcileIsIdempotentOnRedelivery(t *testing.T) {
	f := newFixture(t)
	_, outcome := f.pending(t, "res-1", "guest-1", "prop-1", 10, 3)

	_, err := f.reconciler.Reconcile(context.Background(), outcome)
	require.NoError(t, err)
	decision, err := f.reconciler.Reconcile(context.Background(), outcome)
	require.NoError(t, err)

	assert.Equal(t, reconcile.DecisionSettled, decision)
	assert.Equal(t, int64(1), f.property(t).NumberOfReservations)
	assert.Len(t, f.notifier.titlesFor("guest-1"), 1)
	assert.Zero(t, f.payments.Calls("refund"))
}

func TestReconcileRefundsLoserOfOverlap(t *testing.T) {
	for _, order := range []string{"a-first", "b-first"} {
		t.Run(order, func(t *testing.T) {
			f := newFixture(t)
			_, a := f.pending(t, "res-a", "guest-a", "prop-1", 10, 3)
			_, b := f.pending(t, "res-b", "guest-b", "prop-1", 11, 3)

			first, second := a, b
			winner, loser := "res-a", "res-b"
			loserGuest := "guest-b"
			if order == "b-first" {
				first, second = b, a
				winner, loser = "res-b", "res-a"
				loserGuest = "guest-a"
			}

			d1, err := f.reconciler.Reconcile(context.Background(), first)
			require.NoError(t, err)
			d2, err := f.reconciler.Reconcile(context.Background(), second)
			require.NoError(t, err)
			assert.Equal(t, reconcile.DecisionConfirmed, d1)
			assert.Equal(t, reconcile.DecisionRefunded, d2)

			assert.Equal(t, reservation.StatusConfirmed, f.reservation(t, winner).Status)
			lost := f.reservation(t, loser)
			assert.Equal(t, reservation.StatusCanceled, lost.Status)
			assert.Equal(t, reservation.ReasonDatesUnavailable, lost.CancelReason)

			session, _ := f.payments.Session(lost.PaymentToken)
			assert.Equal(t, paymemory.SessionRefunded, session.State)
			task, err := f.tasks.ByID(context.Background(), compensation.TaskID(compensation.KindRefund, lost.PaymentToken))
			require.NoError(t, err)
			assert.Equal(t, compensation.StateDone, task.State)
			assert.Equal(t, []string{"Property unavailable"}, f.notifier.titlesFor(loserGuest))
		})
	}
}

func TestConcurrentReconcileConfirmsExactlyOne(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		_, a := f.pending(t, "res-a", "guest-a", "prop-1", 10, 3)
		_, b := f.pending(t, "res-b", "guest-b", "prop-1", 12, 3)

		var wg sync.WaitGroup
		decisions := make([]reconcile.Decision, 2)
		for i, o := range []payment.Outcome{a, b} {
			wg.Add(1)
			go func(i int, o payment.Outcome) {
				defer wg.Done()
				d, err := f.reconciler.Reconcile(context.Background(), o)
				assert.NoError(t, err)
				decisions[i] = d
			}(i, o)
		}
		wg.Wait()

		assert.ElementsMatch(t, []reconcile.Decision{reconcile.DecisionConfirmed, reconcile.DecisionRefunded}, decisions)
		statuses := []reservation.Status{f.reservation(t, "res-a").Status, f.reservation(t, "res-b").Status}
		assert.ElementsMatch(t, []reservation.Status{reservation.StatusConfirmed, reservation.StatusCanceled}, statuses)
		assert.Equal(t, int64(1), f.property(t).NumberOfReservations)
	}
}

// pausingRepo blocks the first availability lookup until released.
type pausingRepo struct {
	reservation.Repository
	gate *gate
}

type gate struct {
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{reached: make(chan struct{}), release: make(chan struct{})}
}

func (r pausingRepo) ConfirmedOverlapping(ctx context.Context, id property.ID, dr daterange.DateRange, exclude reservation.ID) ([]*reservation.Reservation, error) {
	out, err := r.Repository.ConfirmedOverlapping(ctx, id, dr, exclude)
	r.gate.once.Do(func() {
		close(r.gate.reached)
		<-r.gate.release
	})
	return out, err
}

type pausingUnit struct {
	uow.UnitOfWork
	gate *gate
}

func (u pausingUnit) Reservations() reservation.Repository {
	return pausingRepo{Repository: u.UnitOfWork.Reservations(), gate: u.gate}
}

type pausingFactory struct {
	inner uow.UoWFactory
	gate  *gate
}

func (f pausingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return pausingUnit{UnitOfWork: unit, gate: f.gate}, nil
}

func TestConfirmationBetweenCheckAndCommitWins(t *testing.T) {
	f := newFixture(t)
	_, a := f.pending(t, "res-a", "guest-a", "prop-1", 10, 3)
	_, b := f.pending(t, "res-b", "guest-b", "prop-1", 11, 3)

	g := newGate()
	paused := *f.reconciler
	paused.UoWFactory = pausingFactory{inner: f.factory, gate: g}

	type result struct {
		decision reconcile.Decision
		err      error
	}
	done := make(chan result, 1)
	go func() {
		d, err := paused.Reconcile(context.Background(), a)
		done <- result{d, err}
	}()

	<-g.reached
	// res-a has seen no confirmed overlap; res-b confirms before it commits.
	db, err := f.reconciler.Reconcile(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, reconcile.DecisionConfirmed, db)
	close(g.release)

	ra := <-done
	require.NoError(t, ra.err)
	assert.Equal(t, reconcile.DecisionRefunded, ra.decision)

	assert.Equal(t, reservation.StatusConfirmed, f.reservation(t, "res-b").Status)
	lost := f.reservation(t, "res-a")
	assert.Equal(t, reservation.StatusCanceled, lost.Status)
	assert.Equal(t, reservation.ReasonDatesUnavailable, lost.CancelReason)
	assert.Equal(t, int64(1), f.property(t).NumberOfReservations)
	session, _ := f.payments.Session(lost.PaymentToken)
	assert.Equal(t, paymemory.SessionRefunded, session.State)
}

func TestPaymentForDeletedReservationIsRefunded(t *testing.T) {
	f := newFixture(t)
	res, outcome := f.pending(t, "res-1", "guest-1", "prop-1", 10, 3)
	exec := &compensate.Executor{Payments: f.payments, Store: f.tasks}

	// Paid, then deleted while still pending, before the outcome arrives.
	require.NoError(t, uow.Run(context.Background(), f.factory, 1, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := exec.CancelSession(ctx, unit, res); err != nil {
			return err
		}
		return unit.Reservations().Delete(ctx, res.ID)
	}))

	decision, err := f.reconciler.Reconcile(context.Background(), outcome)
	require.NoError(t, err)
	assert.Equal(t, reconcile.DecisionDropped, decision)

	session, _ := f.payments.Session(res.PaymentToken)
	assert.Equal(t, paymemory.SessionRefunded, session.State)
	assert.Equal(t, 1, f.payments.Calls("refund"))
}

func TestReconcileRefundsReservationCanceledBeforePayment(t *testing.T) {
	f := newFixture(t)
	res, outcome := f.pending(t, "res-1", "guest-1", "prop-1", 10, 3)
	require.NoError(t, res.Cancel(reservation.ReasonCustomerCanceled, time.Now()))
	res.ClearEvents()
	f.store.SeedReservation(res)

	decision, err := f.reconciler.Reconcile(context.Background(), outcome)
	require.NoError(t, err)
	assert.Equal(t, reconcile.DecisionRefunded, decision)
	session, _ := f.payments.Session(res.PaymentToken)
	assert.Equal(t, paymemory.SessionRefunded, session.State)
	assert.Equal(t, reservation.ReasonCustomerCanceled, f.reservation(t, "res-1").CancelReason)
}

func TestReconcileFallsBackToRefundWhenSettlingFails(t *testing.T) {
	f := newFixture(t)
	// The property is missing, so confirming cannot update its counters.
	_, outcome := f.pending(t, "res-1", "guest-1", "ghost", 10, 3)

	decision, err := f.reconciler.Reconcile(context.Background(), outcome)
	require.NoError(t, err)
	assert.Equal(t, reconcile.DecisionRefunded, decision)

	res := f.reservation(t, "res-1")
	assert.Equal(t, reservation.StatusCanceled, res.Status)
	assert.Equal(t, reservation.ReasonReconcileFailed, res.CancelReason)
	session, _ := f.payments.Session(res.PaymentToken)
	assert.Equal(t, paymemory.SessionRefunded, session.State)
	assert.Equal(t, []string{"Payment could not be processed"}, f.notifier.titlesFor("guest-1"))
}

func TestReconcileKeepsRefundTaskWhenProcessorFails(t *testing.T) {
	f := newFixture(t)
	_, a := f.pending(t, "res-a", "guest-a", "prop-1", 10, 3)
	_, b := f.pending(t, "res-b", "guest-b", "prop-1", 10, 3)
	_, err := f.reconciler.Reconcile(context.Background(), a)
	require.NoError(t, err)

	f.payments.FailNext("refund", assert.AnError)
	decision, err := f.reconciler.Reconcile(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, reconcile.DecisionRefunded, decision)

	task, err := f.tasks.ByID(context.Background(), compensation.TaskID(compensation.KindRefund, b.Token))
	require.NoError(t, err)
	assert.Equal(t, compensation.StateFailed, task.State)
	assert.Equal(t, 1, task.Attempts)
}

func TestReconcileDropsUnknownAndMalformedOutcomes(t *testing.T) {
	f := newFixture(t)

	decision, err := f.reconciler.Reconcile(context.Background(), payment.Outcome{ID: "evt-1", Type: payment.OutcomeSucceeded, Token: "pi_unknown"})
	require.NoError(t, err)
	assert.Equal(t, reconcile.DecisionDropped, decision)

	decision, err = f.reconciler.Reconcile(context.Background(), payment.Outcome{Type: payment.OutcomeSucceeded})
	require.NoError(t, err)
	assert.Equal(t, reconcile.DecisionDropped, decision)
}

func TestReconcileRecordsBookkeepingOutcomes(t *testing.T) {
	f := newFixture(t)
	res, _ := f.pending(t, "res-1", "guest-1", "prop-1", 10, 3)
	failed := payment.Outcome{ID: "evt-f", Type: payment.OutcomeFailed, Token: res.PaymentToken}

	for i := 0; i < 2; i++ {
		decision, err := f.reconciler.Reconcile(context.Background(), failed)
		require.NoError(t, err)
		assert.Equal(t, reconcile.DecisionRecorded, decision)
	}
	assert.Len(t, f.events.Events(), 1)
	assert.Equal(t, reservation.StatusPending, f.reservation(t, "res-1").Status)
}
