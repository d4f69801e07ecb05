// Package memory is an in-process payment processor for local runs and
// tests. It keeps session state so repeated cancels and refunds behave like
// the real processor's.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/policies"
	"staybook/internal/domain/payment"
	"staybook/internal/domain/shared/failure"
)

var ErrUnknownSession = failure.New(failure.KindExternalService, "memory payments: unknown session")

type SessionState string

const (
	SessionOpen      SessionState = "open"
	SessionSucceeded SessionState = "succeeded"
	SessionCanceled  SessionState = "canceled"
	SessionRefunded  SessionState = "refunded"
)

type Session struct {
	Token   string
	Request payment.SessionRequest
	State   SessionState
}

type Processor struct {
	mu       sync.Mutex
	sessions map[string]*Session
	attempts map[string]string
	calls    map[string]int
	failures map[string][]error
}

func NewProcessor() *Processor {
	return &Processor{
		sessions: make(map[string]*Session),
		attempts: make(map[string]string),
		calls:    make(map[string]int),
		failures: make(map[string][]error),
	}
}

// FailNext makes the next call of op ("open", "cancel", "refund") return err.
func (p *Processor) FailNext(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = append(p.failures[op], err)
}

func (p *Processor) OpenSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.call("open"); err != nil {
		return payment.Session{}, err
	}
	// A repeated attempt key gets the session it opened, whatever its state.
	if token, ok := p.attempts[req.AttemptKey]; ok && req.AttemptKey != "" {
		return payment.Session{Token: token, ClientSecret: token + "_secret"}, nil
	}
	token := "pi_" + uuid.NewString()
	p.sessions[token] = &Session{Token: token, Request: req, State: SessionOpen}
	if req.AttemptKey != "" {
		p.attempts[req.AttemptKey] = token
	}
	return payment.Session{Token: token, ClientSecret: token + "_secret"}, nil
}

func (p *Processor) CancelSession(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.call("cancel"); err != nil {
		return err
	}
	s, ok := p.sessions[token]
	if !ok {
		return ErrUnknownSession
	}
	if s.State != SessionOpen {
		return payment.ErrSessionTerminal
	}
	s.State = SessionCanceled
	return nil
}

// RefundSession refunds a paid session. An unpaid one is canceled instead,
// since nothing was captured.
func (p *Processor) RefundSession(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.call("refund"); err != nil {
		return err
	}
	s, ok := p.sessions[token]
	if !ok {
		return ErrUnknownSession
	}
	switch s.State {
	case SessionSucceeded:
		s.State = SessionRefunded
		return nil
	case SessionOpen:
		s.State = SessionCanceled
		return nil
	default:
		return payment.ErrSessionTerminal
	}
}

// Pay marks the session paid and returns the outcome the processor would
// deliver for it.
func (p *Processor) Pay(token string) (payment.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[token]
	if !ok {
		return payment.Outcome{}, ErrUnknownSession
	}
	if s.State != SessionOpen {
		return payment.Outcome{}, errors.New("memory payments: session is " + string(s.State))
	}
	s.State = SessionSucceeded
	return payment.Outcome{
		ID:         "evt_" + uuid.NewString(),
		Type:       payment.OutcomeSucceeded,
		Token:      token,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

func (p *Processor) Session(token string) (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[token]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Calls reports how many times op was invoked, failed calls included.
func (p *Processor) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

func (p *Processor) call(op string) error {
	p.calls[op]++
	if queued := p.failures[op]; len(queued) > 0 {
		p.failures[op] = queued[1:]
		return queued[0]
	}
	return nil
}

var _ policies.PaymentsPort = (*Processor)(nil)
