package repository

import (
	"context"
	"fmt"
	"time"

	"fleet-app/driver-management-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EmploymentFilter struct {
	CompanyID string
	DriverID  string
	Status    models.EmploymentStatus
}

type EmploymentRepository interface {
	Create(ctx context.Context, e *models.Employment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employment, error)
	// Save replaces the document only if its stored status is still expected.
	Save(ctx context.Context, e *models.Employment, expected models.EmploymentStatus) error
	FindActiveByDriver(ctx context.Context, driverID string) (*models.Employment, error)
	// SetAssignmentStatus updates the driver's ACTIVE employment and returns
	// the status it had before the call.
	SetAssignmentStatus(ctx context.Context, driverID string, status models.AssignmentStatus, at time.Time) (*models.Employment, models.AssignmentStatus, error)
	List(ctx context.Context, filter EmploymentFilter) ([]models.Employment, error)
}

type employmentRepository struct {
	collection *mongo.Collection
}

func NewEmploymentRepository(db *mongo.Database) EmploymentRepository {
	return &employmentRepository{collection: db.Collection(employmentsCollection)}
}

func (r *employmentRepository) Create(ctx context.Context, e *models.Employment) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, e)
	return translate(err, "active employment for this driver")
}

func (r *employmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employment, error) {
	var e models.Employment
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, translate(err, "employment")
	}
	return &e, nil
}

func (r *employmentRepository) Save(ctx context.Context, e *models.Employment, expected models.EmploymentStatus) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": e.ID, "status": expected}, e)
	if err != nil {
		return translate(err, "employment")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: employment %s was modified concurrently", models.ErrConflict, e.ID.Hex())
	}
	return nil
}

func (r *employmentRepository) FindActiveByDriver(ctx context.Context, driverID string) (*models.Employment, error) {
	var e models.Employment
	err := r.collection.FindOne(ctx, bson.M{"driverId": driverID, "status": models.EmploymentActive}).Decode(&e)
	if err != nil {
		return nil, translate(err, "active employment")
	}
	return &e, nil
}

func (r *employmentRepository) SetAssignmentStatus(ctx context.Context, driverID string, status models.AssignmentStatus, at time.Time) (*models.Employment, models.AssignmentStatus, error) {
	var before models.Employment
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"driverId": driverID, "status": models.EmploymentActive},
		bson.M{"$set": bson.M{"assignmentStatus": status, "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return nil, "", translate(err, "active employment")
	}
	previous := before.AssignmentStatus
	after := before
	after.AssignmentStatus = status
	after.UpdatedAt = at
	return &after, previous, nil
}

func (r *employmentRepository) List(ctx context.Context, f EmploymentFilter) ([]models.Employment, error) {
	filter := bson.M{}
	if f.CompanyID != "" {
		filter["companyId"] = f.CompanyID
	}
	if f.DriverID != "" {
		filter["driverId"] = f.DriverID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	employments := []models.Employment{}
	err = cursor.All(ctx, &employments)
	return employments, err
}
