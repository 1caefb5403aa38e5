package repository

import (
	"context"

	"fleet-app/driver-management-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RatingRepository interface {
	Create(ctx context.Context, r *models.DriverRating) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.DriverRating, error)
	Save(ctx context.Context, r *models.DriverRating) error
	Exists(ctx context.Context, driverID, companyID, employmentID string) (bool, error)
	ListByDriver(ctx context.Context, driverID string, approvedOnly bool) ([]models.DriverRating, error)
}

type ratingRepository struct {
	collection *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) RatingRepository {
	return &ratingRepository{collection: db.Collection(ratingsCollection)}
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.DriverRating) error {
	if rating.ID.IsZero() {
		rating.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, rating)
	return translate(err, "rating for this employment")
}

func (r *ratingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DriverRating, error) {
	var rating models.DriverRating
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rating); err != nil {
		return nil, translate(err, "rating")
	}
	return &rating, nil
}

func (r *ratingRepository) Save(ctx context.Context, rating *models.DriverRating) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rating.ID}, rating)
	if err != nil {
		return translate(err, "rating")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "rating")
	}
	return nil
}

func (r *ratingRepository) Exists(ctx context.Context, driverID, companyID, employmentID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"driverId":          driverID,
		"ratedBy.companyId": companyID,
		"employmentId":      employmentID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ratingRepository) ListByDriver(ctx context.Context, driverID string, approvedOnly bool) ([]models.DriverRating, error) {
	filter := bson.M{"driverId": driverID}
	if approvedOnly {
		filter["isApproved"] = true
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	ratings := []models.DriverRating{}
	err = cursor.All(ctx, &ratings)
	return ratings, err
}
