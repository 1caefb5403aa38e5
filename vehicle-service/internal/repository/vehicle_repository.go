package repository

import (
	"context"
	"errors"
	"time"

	"fleet-app/vehicle-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "vehicles"
)

type VehicleRepository struct {
	db *mongo.Database
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{
		db: db,
	}
}

// EnsureIndexes makes registration numbers unique across the fleet.
func (r *VehicleRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(collectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "registrationNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "companyId", Value: 1}}},
	})
	return err
}

func (r *VehicleRepository) GetByCompany(ctx context.Context, companyID string) ([]models.Vehicle, error) {
	collection := r.db.Collection(collectionName)

	cursor, err := collection.Find(ctx, bson.M{"companyId": companyID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	vehicles := []models.Vehicle{}
	if err = cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Collection(collectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
	if err != nil {
		return nil, r.handleDatabaseError(err)
	}
	return &vehicle, nil
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	now := time.Now().UTC()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	result, err := r.db.Collection(collectionName).InsertOne(ctx, vehicle)
	if err != nil {
		return r.handleDatabaseError(err)
	}
	vehicle.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *VehicleRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, isActive bool) (*models.Vehicle, error) {
	update := bson.M{"$set": bson.M{
		"isActive":  isActive,
		"updatedAt": time.Now().UTC(),
	}}
	var vehicle models.Vehicle
	err := r.db.Collection(collectionName).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&vehicle)
	if err != nil {
		return nil, r.handleDatabaseError(err)
	}
	return &vehicle, nil
}

func (r *VehicleRepository) handleDatabaseError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicate
	}
	return err
}
