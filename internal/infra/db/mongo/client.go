package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colReservations  = "reservations"
	colProperties    = "properties"
	colReviews       = "reviews"
	colAccounts      = "accounts"
	colNotifications = "notifications"
	colCompensations = "compensation_tasks"
	colPaymentEvents = "payment_events"
	colIdempotency   = "app_idempotency"
	colOutbox        = "app_outbox"
)

type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true).SetServerSelectionTimeout(timeout)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Ping(ctx, nil); err != nil {
		_ = m.Disconnect(context.Background())
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the collections' indexes. Transactions cannot
// create collections on older servers, so this runs before serving.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colReservations: {
			{Keys: bson.D{{Key: "payment_token", Value: 1}}},
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}, {Key: "range.start", Value: 1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "range.start", Value: 1}}},
		},
		colReviews: {
			{Keys: bson.D{{Key: "reservation_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colCompensations: {
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		},
		colOutbox: {
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		},
	}
	for col, models := range specs {
		if _, err := c.DB.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	for _, col := range []string{colProperties, colAccounts, colPaymentEvents} {
		if err := c.DB.CreateCollection(ctx, col); err != nil && !alreadyExists(err) {
			return err
		}
	}
	return nil
}

func alreadyExists(err error) bool {
	var se mongo.ServerError
	// NamespaceExists
	return asServerError(err, &se) && se.HasErrorCode(48)
}
