package notification

import (
	"context"
	"strings"
	"time"

	"staybook/internal/domain/shared/failure"
)

var (
	ErrNotFound  = failure.New(failure.KindNotFound, "notification: not found")
	ErrForbidden = failure.New(failure.KindAuthorization, "notification: not addressed to this user")
	ErrInvalid   = failure.New(failure.KindValidation, "notification: user and title are required")
)

type ID string

type Notification struct {
	ID        ID
	UserID    string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

type Repository interface {
	Add(ctx context.Context, n *Notification) error
	ByID(ctx context.Context, id ID) (*Notification, error)
	// ListByUser returns newest first; limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Notification, error)
	Save(ctx context.Context, n *Notification) error
}

func New(id ID, userID, title, message string, now time.Time) (*Notification, error) {
	if id == "" || userID == "" || strings.TrimSpace(title) == "" {
		return nil, ErrInvalid
	}
	return &Notification{
		ID:        id,
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Message:   message,
		CreatedAt: now.UTC(),
	}, nil
}

func (n *Notification) MarkRead(userID string) error {
	if userID != n.UserID {
		return ErrForbidden
	}
	n.Read = true
	return nil
}
