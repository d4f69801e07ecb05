package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/domain/compensation"
)

// CompensationStore is the worker side of the task collection. Claims left
// by a crashed worker are handed out again after ClaimTimeout.
type CompensationStore struct {
	*TaskQueue
	ClaimTimeout time.Duration
}

func NewCompensationStore(db *mongo.Database, claimTimeout time.Duration) *CompensationStore {
	if claimTimeout <= 0 {
		claimTimeout = time.Minute
	}
	return &CompensationStore{TaskQueue: NewTaskQueue(db), ClaimTimeout: claimTimeout}
}

func (s *CompensationStore) Claim(ctx context.Context, workerID string, now time.Time) (*compensation.Task, error) {
	now = now.UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{
			"state":           bson.M{"$in": bson.A{string(compensation.StatePending), string(compensation.StateFailed)}},
			"next_attempt_at": bson.M{"$lte": now},
		},
		bson.M{
			"state":      string(compensation.StateClaimed),
			"updated_at": bson.M{"$lte": now.Add(-s.ClaimTimeout)},
		},
	}}
	update := bson.M{"$set": bson.M{"state": string(compensation.StateClaimed), "claimed_by": workerID, "updated_at": now}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)
	var doc taskDocument
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toTask(), nil
}

func (s *CompensationStore) MarkDone(ctx context.Context, id string, now time.Time) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{
		"state":      string(compensation.StateDone),
		"last_error": "",
		"updated_at": now.UTC(),
	}})
}

func (s *CompensationStore) MarkFailed(ctx context.Context, id string, next time.Time, reason string) error {
	return s.update(ctx, id, bson.M{
		"$set": bson.M{
			"state":           string(compensation.StateFailed),
			"next_attempt_at": next.UTC(),
			"last_error":      reason,
			"updated_at":      time.Now().UTC(),
		},
		"$inc": bson.M{"attempts": 1},
	})
}

func (s *CompensationStore) ByID(ctx context.Context, id string) (*compensation.Task, error) {
	doc, err := findOne[taskDocument](ctx, s.col, bson.M{"_id": id}, compensation.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toTask(), nil
}

func (s *CompensationStore) update(ctx context.Context, id string, update bson.M) error {
	res, err := s.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return compensation.ErrNotFound
	}
	return nil
}

var _ compensation.Store = (*CompensationStore)(nil)
