package repository

import (
	"context"
	"time"

	"fleet-app/driver-management-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OutboxRepository interface {
	Insert(ctx context.Context, rec *models.IdentitySyncRecord) error
	// ListPending returns PENDING records oldest first.
	ListPending(ctx context.Context, limit int64) ([]models.IdentitySyncRecord, error)
	MarkDone(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkRetry(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, at time.Time, lastErr string) error
	CountPending(ctx context.Context) (int64, error)
}

type outboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) OutboxRepository {
	return &outboxRepository{collection: db.Collection(identityOutboxCollection)}
}

func (r *outboxRepository) Insert(ctx context.Context, rec *models.IdentitySyncRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, rec)
	return translate(err, "identity sync record")
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int64) ([]models.IdentitySyncRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.SyncPending}, opts)
	if err != nil {
		return nil, err
	}
	var records []models.IdentitySyncRecord
	err = cursor.All(ctx, &records)
	return records, err
}

func (r *outboxRepository) MarkDone(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":      models.SyncDone,
		"completedAt": at,
	}, "$inc": bson.M{"attempts": 1}})
	return err
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, lastErr string) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"attempts":      attempts,
		"nextAttemptAt": next,
		"lastError":     lastErr,
	}})
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, at time.Time, lastErr string) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":      models.SyncFailed,
		"completedAt": at,
		"lastError":   lastErr,
	}, "$inc": bson.M{"attempts": 1}})
	return err
}

func (r *outboxRepository) CountPending(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": models.SyncPending})
}
