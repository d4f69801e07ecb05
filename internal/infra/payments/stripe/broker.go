// Package stripe adapts Stripe payment intents to the payments port. Every
// call goes through a circuit breaker so a failing processor is not hammered
// by the compensation worker.
package stripe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"staybook/internal/app/policies"
	"staybook/internal/domain/payment"
	"staybook/internal/domain/shared/failure"
)

var ErrCircuitOpen = failure.New(failure.KindExternalService, "stripe: processor temporarily unavailable")

type Config struct {
	SecretKey string
	// BaseURL overrides the API endpoint; empty uses Stripe's.
	BaseURL string
	Logger  *slog.Logger
}

type Broker struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewBroker(cfg Config) *Broker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var backends *stripego.Backends
	if cfg.BaseURL != "" {
		backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
			URL:               stripego.String(cfg.BaseURL),
			HTTPClient:        &http.Client{Timeout: 10 * time.Second},
			MaxNetworkRetries: stripego.Int64(0),
			LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
		})
		backends = &stripego.Backends{API: backend, Uploads: backend}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "stripe",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Only transport and server failures count against the processor.
			return err == nil || !transient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Broker{api: client.New(cfg.SecretKey, backends), breaker: breaker, logger: logger}
}

// OpenSession creates a payment intent for the reservation. The attempt key,
// or the reservation id without one, is the idempotency key, so a network
// retry of the same attempt returns the same intent.
func (b *Broker) OpenSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(req.Amount.Amount),
		Currency: stripego.String(strings.ToLower(req.Amount.Currency)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	if req.CustomerRef != "" {
		params.Customer = stripego.String(req.CustomerRef)
	}
	params.Context = ctx
	key := req.AttemptKey
	if key == "" {
		key = req.ReservationID
	}
	params.IdempotencyKey = stripego.String("reservation:" + key)
	params.AddMetadata("reservation_id", req.ReservationID)
	params.AddMetadata("property_id", req.PropertyID)

	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.api.PaymentIntents.New(params)
	})
	if err != nil {
		return payment.Session{}, b.classify("open", req.ReservationID, err)
	}
	pi := out.(*stripego.PaymentIntent)
	return payment.Session{Token: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (b *Broker) CancelSession(ctx context.Context, token string) error {
	params := &stripego.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return b.api.PaymentIntents.Cancel(token, params)
	})
	if err != nil {
		return b.classify("cancel", token, err)
	}
	return nil
}

func (b *Broker) RefundSession(ctx context.Context, token string) error {
	params := &stripego.RefundParams{PaymentIntent: stripego.String(token)}
	params.Context = ctx
	params.IdempotencyKey = stripego.String("refund:" + token)
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return b.api.Refunds.New(params)
	})
	if err != nil {
		return b.classify("refund", token, err)
	}
	return nil
}

// classify maps processor errors onto the payments port contract.
func (b *Broker) classify(op, ref string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	var se *stripego.Error
	if errors.As(err, &se) {
		switch se.Code {
		case stripego.ErrorCodePaymentIntentUnexpectedState, stripego.ErrorCodeChargeAlreadyRefunded:
			return payment.ErrSessionTerminal
		}
	}
	b.logger.Error("stripe call failed", "op", op, "ref", ref, "err", err)
	return failure.Wrap(failure.KindExternalService, err)
}

func transient(err error) bool {
	var se *stripego.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode >= http.StatusInternalServerError || se.HTTPStatusCode == http.StatusTooManyRequests
	}
	return true
}

var _ policies.PaymentsPort = (*Broker)(nil)
