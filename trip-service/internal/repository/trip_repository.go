package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-app/trip-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) error
	// Save replaces the trip only while it still has the expected status.
	Save(ctx context.Context, trip *models.Trip, expected models.TripStatus) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error)
	List(ctx context.Context, f models.TripFilter) ([]models.Trip, error)
	// FindDriverOverlap returns an active trip of driverID intersecting [start, end], ignoring exclude.
	FindDriverOverlap(ctx context.Context, driverID string, start, end time.Time, exclude primitive.ObjectID) (*models.Trip, error)
	CountActiveForDriver(ctx context.Context, driverID string, exclude primitive.ObjectID) (int64, error)
	ListOverdue(ctx context.Context, endedBefore time.Time) ([]models.Trip, error)
}

type tripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) TripRepository {
	return &tripRepository{collection: db.Collection("trips")}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("trips").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "startDateTime", Value: -1}}},
		{Keys: bson.D{{Key: "driverId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endDateTime", Value: 1}}},
	})
	return err
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	trip.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, trip)
	return err
}

func (r *tripRepository) Save(ctx context.Context, trip *models.Trip, expected models.TripStatus) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": trip.ID, "status": expected}, trip)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: trip %s was modified concurrently", models.ErrConflict, trip.ID.Hex())
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	var trip models.Trip
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepository) List(ctx context.Context, f models.TripFilter) ([]models.Trip, error) {
	filter := bson.M{}
	if f.CompanyID != "" {
		filter["companyId"] = f.CompanyID
	}
	if f.DriverID != "" {
		filter["driverId"] = f.DriverID
	}
	if f.VehicleID != "" {
		filter["vehicleId"] = f.VehicleID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startDateTime", Value: 1}}))
}

func (r *tripRepository) FindDriverOverlap(ctx context.Context, driverID string, start, end time.Time, exclude primitive.ObjectID) (*models.Trip, error) {
	filter := bson.M{
		"driverId":      driverID,
		"status":        bson.M{"$in": models.ActiveStatuses},
		"_id":           bson.M{"$ne": exclude},
		"startDateTime": bson.M{"$lte": end},
		"endDateTime":   bson.M{"$gte": start},
	}
	var trip models.Trip
	if err := r.collection.FindOne(ctx, filter).Decode(&trip); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepository) CountActiveForDriver(ctx context.Context, driverID string, exclude primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"driverId": driverID,
		"status":   bson.M{"$in": models.ActiveStatuses},
		"_id":      bson.M{"$ne": exclude},
	})
}

func (r *tripRepository) ListOverdue(ctx context.Context, endedBefore time.Time) ([]models.Trip, error) {
	return r.find(ctx, bson.M{
		"status":      models.StatusInProgress,
		"endDateTime": bson.M{"$lt": endedBefore},
	}, options.Find().SetLimit(200))
}

func (r *tripRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Trip, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	trips := []models.Trip{}
	err = cursor.All(ctx, &trips)
	return trips, err
}
