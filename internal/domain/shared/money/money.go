// Package money holds fees as integer minor units of an ISO 4217 currency.
package money

import (
	"fmt"
	"strings"

	"staybook/internal/domain/shared/failure"
)

var ErrInvalidCurrency = failure.New(failure.KindValidation, "money: currency must be a three letter code")

type Money struct {
	Amount   int64
	Currency string
}

func New(amount int64, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return Money{}, ErrInvalidCurrency
		}
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Must is New for constants and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Multiply scales the amount, e.g. a nightly fee by the number of nights.
func (m Money) Multiply(n int64) Money {
	return Money{Amount: m.Amount * n, Currency: m.Currency}
}

func (m Money) IsPositive() bool { return m.Amount > 0 }

func (m Money) String() string { return fmt.Sprintf("%d %s", m.Amount, m.Currency) }
