package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/payment"
	"staybook/internal/domain/shared/money"
)

func open(t *testing.T, p *Processor) string {
	t.Helper()
	sess, err := p.OpenSession(context.Background(), payment.SessionRequest{ReservationID: "r1", Amount: money.Must(100, "USD")})
	require.NoError(t, err)
	return sess.Token
}

func TestCancelTwiceIsTerminal(t *testing.T) {
	p := NewProcessor()
	token := open(t, p)

	require.NoError(t, p.CancelSession(context.Background(), token))
	assert.ErrorIs(t, p.CancelSession(context.Background(), token), payment.ErrSessionTerminal)
}

func TestRefundPaidSession(t *testing.T) {
	p := NewProcessor()
	token := open(t, p)

	o, err := p.Pay(token)
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeSucceeded, o.Type)
	assert.Equal(t, token, o.Token)

	require.NoError(t, p.RefundSession(context.Background(), token))
	s, ok := p.Session(token)
	require.True(t, ok)
	assert.Equal(t, SessionRefunded, s.State)
	assert.ErrorIs(t, p.RefundSession(context.Background(), token), payment.ErrSessionTerminal)
}

func TestAttemptKeyReturnsTheSameSession(t *testing.T) {
	p := NewProcessor()
	req := payment.SessionRequest{ReservationID: "r1", Amount: money.Must(100, "USD"), AttemptKey: "r1:a"}

	first, err := p.OpenSession(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, p.CancelSession(context.Background(), first.Token))
	again, err := p.OpenSession(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Token, again.Token)

	req.AttemptKey = "r1:b"
	fresh, err := p.OpenSession(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, fresh.Token)
	s, _ := p.Session(fresh.Token)
	assert.Equal(t, SessionOpen, s.State)
}

func TestFailNextAppliesOnce(t *testing.T) {
	p := NewProcessor()
	token := open(t, p)
	boom := errors.New("processor down")
	p.FailNext("cancel", boom)

	assert.ErrorIs(t, p.CancelSession(context.Background(), token), boom)
	assert.NoError(t, p.CancelSession(context.Background(), token))
	assert.Equal(t, 2, p.Calls("cancel"))
}

func TestJSONParserStampsReceipt(t *testing.T) {
	o, err := JSONParser{}.Parse([]byte(`{"id":"evt_1","type":"succeeded","token":"pi_1"}`), "")
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeSucceeded, o.Type)
	assert.False(t, o.ReceivedAt.IsZero())

	_, err = JSONParser{}.Parse([]byte(`{`), "")
	assert.ErrorIs(t, err, ErrMalformedOutcome)
}
