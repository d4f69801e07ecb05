package policies

import "context"

// Notifier pushes a message to a connected user. Delivery is best effort:
// an offline user is not an error.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string, string) error { return nil }
