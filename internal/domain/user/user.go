package user

import (
	"context"
	"time"

	"staybook/internal/domain/shared/failure"
)

var (
	ErrNotFound       = failure.New(failure.KindNotFound, "user: not found")
	ErrIDRequired     = failure.New(failure.KindValidation, "user: id is required")
	ErrNegativePoints = failure.New(failure.KindValidation, "user: points must not be negative")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleHost     Role = "host"
	RoleAdmin    Role = "admin"
)

type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusVerified  AccountStatus = "verified"
	StatusSuspended AccountStatus = "suspended"
	StatusDeleted   AccountStatus = "deleted"
)

// Principal is the already-authenticated identity acting on the engine.
type Principal struct {
	UserID        string
	Role          Role
	AccountStatus AccountStatus
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsAnonymous() bool {
	return p.UserID == ""
}

// Suspended reports whether the account may not start new reservations.
func (p Principal) Suspended() bool {
	return p.AccountStatus == StatusSuspended || p.AccountStatus == StatusDeleted
}

// Account holds the booking-relevant projection of a user: the processor
// customer reference and the reward points balance.
type Account struct {
	ID           string
	BillingRef   string
	RewardPoints int64
	Reservations int64
	Version      int64
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Account, error)
	Save(ctx context.Context, account *Account) error
}

func NewAccount(id, billingRef string, now time.Time) (*Account, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	return &Account{ID: id, BillingRef: billingRef, UpdatedAt: now.UTC()}, nil
}

func (a *Account) AwardPoints(points int64, now time.Time) error {
	if points < 0 {
		return ErrNegativePoints
	}
	a.RewardPoints += points
	a.UpdatedAt = now.UTC()
	return nil
}
