package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/uow"
	"staybook/internal/domain/compensation"
	"staybook/internal/domain/notification"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/review"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/user"
)

// replaceVersioned writes doc only over the version the caller loaded. A
// missing match on an existing id surfaces as a duplicate key on upsert.
func replaceVersioned(ctx context.Context, col *mongo.Collection, id string, loaded int64, doc any) error {
	filter := bson.M{"_id": id, "version": loaded}
	res, err := col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConflict
	}
	return nil
}

func findOne[D any](ctx context.Context, col *mongo.Collection, filter any, notFound error) (D, error) {
	var doc D
	if err := col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return doc, notFound
		}
		return doc, mapErr(err)
	}
	return doc, nil
}

func findAll[D any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]D, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mapErr(err)
	}
	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err)
	}
	return docs, nil
}

func statusFilter(filter bson.M, statuses []reservation.Status) bson.M {
	if len(statuses) == 0 {
		return filter
	}
	in := make([]string, 0, len(statuses))
	for _, s := range statuses {
		in = append(in, string(s))
	}
	filter["status"] = bson.M{"$in": in}
	return filter
}

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection(colReservations)}
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservation.ID) (*reservation.Reservation, error) {
	doc, err := findOne[reservationDocument](ctx, r.col, bson.M{"_id": string(id)}, reservation.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) ByPaymentToken(ctx context.Context, token string) (*reservation.Reservation, error) {
	if token == "" {
		return nil, reservation.ErrNotFound
	}
	doc, err := findOne[reservationDocument](ctx, r.col, bson.M{"payment_token": token}, reservation.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) ConfirmedOverlapping(ctx context.Context, propertyID property.ID, dr daterange.DateRange, exclude reservation.ID) ([]*reservation.Reservation, error) {
	filter := bson.M{
		"property_id": string(propertyID),
		"status":      string(reservation.StatusConfirmed),
		"range.start": bson.M{"$lt": timeToTimestamp(dr.End)},
		"range.end":   bson.M{"$gt": timeToTimestamp(dr.Start)},
	}
	if exclude != "" {
		filter["_id"] = bson.M{"$ne": string(exclude)}
	}
	return r.list(ctx, filter)
}

func (r *ReservationRepository) ListByCustomer(ctx context.Context, customerID string, statuses ...reservation.Status) ([]*reservation.Reservation, error) {
	return r.list(ctx, statusFilter(bson.M{"customer_id": customerID}, statuses))
}

func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID property.ID, statuses ...reservation.Status) ([]*reservation.Reservation, error) {
	return r.list(ctx, statusFilter(bson.M{"property_id": string(propertyID)}, statuses))
}

func (r *ReservationRepository) list(ctx context.Context, filter bson.M) ([]*reservation.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}, {Key: "_id", Value: 1}})
	docs, err := findAll[reservationDocument](ctx, r.col, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*reservation.Reservation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *reservation.Reservation) error {
	if res.ID == "" {
		return reservation.ErrMissingField
	}
	doc := newReservationDocument(res)
	doc.Version = res.Version + 1
	if err := replaceVersioned(ctx, r.col, doc.ID, res.Version, doc); err != nil {
		return err
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id reservation.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return reservation.ErrNotFound
	}
	return nil
}

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(colProperties)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	doc, err := findOne[propertyDocument](ctx, r.col, bson.M{"_id": string(id)}, property.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	doc := newPropertyDocument(p)
	doc.Version = p.Version + 1
	if err := replaceVersioned(ctx, r.col, doc.ID, p.Version, doc); err != nil {
		return err
	}
	p.Version = doc.Version
	return nil
}

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(colReviews)}
}

func (r *ReviewRepository) ByID(ctx context.Context, id review.ID) (*review.Review, error) {
	doc, err := findOne[reviewDocument](ctx, r.col, bson.M{"_id": string(id)}, review.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ByReservation(ctx context.Context, id reservation.ID) (*review.Review, error) {
	doc, err := findOne[reviewDocument](ctx, r.col, bson.M{"reservation_id": string(id)}, review.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ListByProperty(ctx context.Context, id property.ID) ([]*review.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	docs, err := findAll[reviewDocument](ctx, r.col, bson.M{"property_id": string(id)}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*review.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *ReviewRepository) Save(ctx context.Context, rv *review.Review) error {
	doc := newReviewDocument(rv)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return mapErr(err)
}

func (r *ReviewRepository) Delete(ctx context.Context, id review.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return review.ErrNotFound
	}
	return nil
}

type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(colAccounts)}
}

func (r *AccountRepository) ByID(ctx context.Context, id string) (*user.Account, error) {
	doc, err := findOne[accountDocument](ctx, r.col, bson.M{"_id": id}, user.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *AccountRepository) Save(ctx context.Context, a *user.Account) error {
	if a.ID == "" {
		return user.ErrIDRequired
	}
	doc := newAccountDocument(a)
	doc.Version = a.Version + 1
	if err := replaceVersioned(ctx, r.col, doc.ID, a.Version, doc); err != nil {
		return err
	}
	a.Version = doc.Version
	return nil
}

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(colNotifications)}
}

func (r *NotificationRepository) Add(ctx context.Context, n *notification.Notification) error {
	_, err := r.col.InsertOne(ctx, newNotificationDocument(n))
	return mapErr(err)
}

func (r *NotificationRepository) ByID(ctx context.Context, id notification.ID) (*notification.Notification, error) {
	doc, err := findOne[notificationDocument](ctx, r.col, bson.M{"_id": string(id)}, notification.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	docs, err := findAll[notificationDocument](ctx, r.col, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*notification.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	doc := newNotificationDocument(n)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return mapErr(err)
}

// TaskQueue is the in-transaction side of the compensation store.
type TaskQueue struct {
	col *mongo.Collection
}

func NewTaskQueue(db *mongo.Database) *TaskQueue {
	return &TaskQueue{col: db.Collection(colCompensations)}
}

// Enqueue keeps the first task recorded for an ID.
func (q *TaskQueue) Enqueue(ctx context.Context, t *compensation.Task) error {
	doc := newTaskDocument(t)
	_, err := q.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	return mapErr(err)
}

var (
	_ reservation.Repository  = (*ReservationRepository)(nil)
	_ property.Repository     = (*PropertyRepository)(nil)
	_ review.Repository       = (*ReviewRepository)(nil)
	_ user.Repository         = (*AccountRepository)(nil)
	_ notification.Repository = (*NotificationRepository)(nil)
	_ compensation.Queue      = (*TaskQueue)(nil)
)
