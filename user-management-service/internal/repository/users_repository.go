package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-app/pkg/auth"
	"fleet-app/user-management-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.ID = primitive.NewObjectID()
	_, err := r.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: email already registered", models.ErrConflict)
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetAll(ctx context.Context, role auth.Role) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return r.find(ctx, filter)
}

// ListFreeAgents returns active drivers with no employer. Legacy rows that
// only carry the "Unemployed" display name count as free.
func (r *UserRepository) ListFreeAgents(ctx context.Context) ([]models.User, error) {
	filter := bson.M{
		"role":   auth.RoleDriver,
		"banned": false,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"currentEmploymentId": nil},
				bson.M{"currentEmploymentId": ""},
			}},
			bson.M{"$or": bson.A{
				bson.M{"companyName": nil},
				bson.M{"companyName": ""},
				bson.M{"companyName": primitive.Regex{Pattern: "^\\s*unemployed\\s*$", Options: "i"}},
			}},
		},
	}
	return r.find(ctx, filter)
}

func (r *UserRepository) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) SetBanStatus(ctx context.Context, id primitive.ObjectID, banned bool) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"banned": banned, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ApplyInternalUpdate writes the employment fields and remembers the sync key.
func (r *UserRepository) ApplyInternalUpdate(ctx context.Context, id primitive.ObjectID, set, unset bson.M) (*models.User, error) {
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	var user models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
