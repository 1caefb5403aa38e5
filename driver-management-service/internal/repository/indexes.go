package repository

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	jobRequestsCollection    = "job_requests"
	employmentsCollection    = "employments"
	ratingsCollection        = "driver_ratings"
	identityOutboxCollection = "identity_outbox"
)

// EnsureIndexes creates the indexes the invariants rely on: one open request
// per company/driver pair, one ACTIVE employment per driver and one rating
// per driver/company/employment.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		jobRequestsCollection: {
			{
				Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "driverId", Value: 1}},
				Options: options.Index().
					SetName("uniq_open_request_per_pair").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"isOpen": true}),
			},
			{Keys: bson.D{{Key: "driverId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isOpen", Value: 1}, {Key: "expiresAt", Value: 1}}},
		},
		employmentsCollection: {
			{
				Keys: bson.D{{Key: "driverId", Value: 1}},
				Options: options.Index().
					SetName("uniq_active_employment_per_driver").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "ACTIVE"}),
			},
			{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "status", Value: 1}}},
		},
		ratingsCollection: {
			{
				Keys: bson.D{
					{Key: "driverId", Value: 1},
					{Key: "ratedBy.companyId", Value: 1},
					{Key: "employmentId", Value: 1},
				},
				Options: options.Index().
					SetName("uniq_rating_per_employment").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"employmentId": bson.M{"$exists": true}}),
			},
			{Keys: bson.D{{Key: "driverId", Value: 1}, {Key: "isApproved", Value: 1}}},
		},
		identityOutboxCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
			{
				Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for collection, models := range indexes {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
		log.Printf("[MONGO] Indexes ready on %s: %v", collection, names)
	}
	return nil
}
