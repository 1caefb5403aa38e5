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

type JobRequestFilter struct {
	CompanyID string
	DriverID  string
	Status    models.JobRequestStatus
	OpenOnly  bool
}

type JobRequestRepository interface {
	Create(ctx context.Context, r *models.JobRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.JobRequest, error)
	// Save replaces the document only if its stored status is still expected.
	Save(ctx context.Context, r *models.JobRequest, expected models.JobRequestStatus) error
	ExistsOpen(ctx context.Context, companyID, driverID string) (bool, error)
	List(ctx context.Context, filter JobRequestFilter) ([]models.JobRequest, error)
	ListExpired(ctx context.Context, now time.Time, limit int64) ([]models.JobRequest, error)
}

type jobRequestRepository struct {
	collection *mongo.Collection
}

func NewJobRequestRepository(db *mongo.Database) JobRequestRepository {
	return &jobRequestRepository{collection: db.Collection(jobRequestsCollection)}
}

func (r *jobRequestRepository) Create(ctx context.Context, req *models.JobRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, req)
	return translate(err, "open job request for this driver")
}

func (r *jobRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.JobRequest, error) {
	var req models.JobRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, translate(err, "job request")
	}
	return &req, nil
}

func (r *jobRequestRepository) Save(ctx context.Context, req *models.JobRequest, expected models.JobRequestStatus) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": req.ID, "status": expected}, req)
	if err != nil {
		return translate(err, "job request")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: job request %s was modified concurrently", models.ErrConflict, req.ID.Hex())
	}
	return nil
}

func (r *jobRequestRepository) ExistsOpen(ctx context.Context, companyID, driverID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"companyId": companyID,
		"driverId":  driverID,
		"isOpen":    true,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *jobRequestRepository) List(ctx context.Context, f JobRequestFilter) ([]models.JobRequest, error) {
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
	if f.OpenOnly {
		filter["isOpen"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	requests := []models.JobRequest{}
	err = cursor.All(ctx, &requests)
	return requests, err
}

func (r *jobRequestRepository) ListExpired(ctx context.Context, now time.Time, limit int64) ([]models.JobRequest, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "expiresAt", Value: 1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{
		"isOpen":    true,
		"expiresAt": bson.M{"$lt": now},
	}, opts)
	if err != nil {
		return nil, err
	}
	var requests []models.JobRequest
	err = cursor.All(ctx, &requests)
	return requests, err
}
