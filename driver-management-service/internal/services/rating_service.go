package services

import (
	"context"
	"fmt"

	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/repository"
	"fleet-app/pkg/auth"
	"fleet-app/pkg/events"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateRatingInput struct {
	DriverID        string
	EmploymentID    string
	OverallRating   int
	CategoryRatings models.CategoryRatings
	Comment         string
}

type UpdateRatingInput struct {
	OverallRating   *int
	CategoryRatings *models.CategoryRatings
	Comment         *string
}

type RatingResult struct {
	Rating    *models.DriverRating   `json:"rating"`
	Aggregate models.RatingAggregate `json:"aggregate"`
}

type DriverRatings struct {
	Ratings   []models.DriverRating  `json:"ratings"`
	Aggregate models.RatingAggregate `json:"aggregate"`
}

type RatingDeps struct {
	Ratings     repository.RatingRepository
	Employments repository.EmploymentRepository
	Cache       RatingCache
	Notifier    Notifier
	Events      events.Emitter
	Clock       Clock
}

type RatingService struct {
	ratings     repository.RatingRepository
	employments repository.EmploymentRepository
	cache       RatingCache
	notifier    Notifier
	events      events.Emitter
	clock       Clock
}

func NewRatingService(d RatingDeps) *RatingService {
	s := &RatingService{
		ratings:     d.Ratings,
		employments: d.Employments,
		cache:       d.Cache,
		notifier:    d.Notifier,
		events:      d.Events,
		clock:       d.Clock,
	}
	if s.cache == nil {
		s.cache = noopCache{}
	}
	if s.clock == nil {
		s.clock = RealClock()
	}
	return s
}

func (s *RatingService) Create(ctx context.Context, caller auth.Caller, in CreateRatingInput) (*RatingResult, error) {
	if err := models.RequireCompany(caller); err != nil {
		return nil, err
	}
	if in.DriverID == "" {
		return nil, models.ValidationErrors{"driverId field is required"}
	}
	if err := models.ValidateOverallRating(in.OverallRating); err != nil {
		return nil, err
	}
	if err := in.CategoryRatings.Validate(); err != nil {
		return nil, err
	}

	if in.EmploymentID != "" {
		if err := s.checkEmployment(ctx, caller, in.DriverID, in.EmploymentID); err != nil {
			return nil, err
		}
		exists, err := s.ratings.Exists(ctx, in.DriverID, caller.ID, in.EmploymentID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: this employment has already been rated", models.ErrConflict)
		}
	}

	now := s.clock.Now()
	rating := &models.DriverRating{
		ID:       primitive.NewObjectID(),
		DriverID: in.DriverID,
		RatedBy: models.RatedBy{
			UserID:    caller.ID,
			CompanyID: caller.ID,
			Role:      string(caller.Role),
		},
		EmploymentID:    in.EmploymentID,
		OverallRating:   in.OverallRating,
		CategoryRatings: in.CategoryRatings,
		Comment:         in.Comment,
		IsApproved:      true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, in.DriverID)
	agg, err := s.aggregate(ctx, in.DriverID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(models.NotificationRequest{
		UserID:        in.DriverID,
		Type:          "DRIVER_RATED",
		Title:         "New rating",
		Message:       fmt.Sprintf("You received a %d star rating.", in.OverallRating),
		RelatedEntity: &models.RelatedEntity{Type: "DriverRating", ID: rating.ID.Hex()},
		Priority:      models.PriorityLow,
	})
	s.events.Emit(ctx, events.New(events.DriverRated, caller.ID, "DriverRating", rating.ID.Hex(), map[string]string{
		"driverId":      in.DriverID,
		"overallRating": fmt.Sprintf("%d", in.OverallRating),
		"averageRating": fmt.Sprintf("%.1f", agg.AverageRating),
	}))
	return &RatingResult{Rating: rating, Aggregate: agg}, nil
}

func (s *RatingService) checkEmployment(ctx context.Context, caller auth.Caller, driverID, employmentID string) error {
	id, err := primitive.ObjectIDFromHex(employmentID)
	if err != nil {
		return models.ValidationErrors{"employmentId is not a valid id"}
	}
	e, err := s.employments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.CompanyID != caller.ID {
		return fmt.Errorf("%w: employment belongs to another company", models.ErrForbidden)
	}
	if e.DriverID != driverID {
		return fmt.Errorf("%w: employment does not belong to this driver", models.ErrValidation)
	}
	return nil
}

// Update keeps the previous overall rating in the edit history.
func (s *RatingService) Update(ctx context.Context, caller auth.Caller, id primitive.ObjectID, in UpdateRatingInput) (*RatingResult, error) {
	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CanEditRating(caller, rating); err != nil {
		return nil, err
	}
	if in.OverallRating == nil && in.CategoryRatings == nil && in.Comment == nil {
		return nil, models.ValidationErrors{"nothing to update"}
	}
	if in.OverallRating != nil {
		if err := models.ValidateOverallRating(*in.OverallRating); err != nil {
			return nil, err
		}
	}
	if in.CategoryRatings != nil {
		if err := in.CategoryRatings.Validate(); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	rating.EditHistory = append(rating.EditHistory, models.RatingEdit{
		PreviousRating: rating.OverallRating,
		EditedAt:       now,
		EditedBy:       caller.ID,
	})
	if in.OverallRating != nil {
		rating.OverallRating = *in.OverallRating
	}
	if in.CategoryRatings != nil {
		rating.CategoryRatings = *in.CategoryRatings
	}
	if in.Comment != nil {
		rating.Comment = *in.Comment
	}
	rating.UpdatedAt = now

	if err := s.ratings.Save(ctx, rating); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, rating.DriverID)
	agg, err := s.aggregate(ctx, rating.DriverID)
	if err != nil {
		return nil, err
	}
	return &RatingResult{Rating: rating, Aggregate: agg}, nil
}

func (s *RatingService) ListForDriver(ctx context.Context, driverID string) (*DriverRatings, error) {
	ratings, err := s.ratings.ListByDriver(ctx, driverID, true)
	if err != nil {
		return nil, err
	}
	return &DriverRatings{Ratings: ratings, Aggregate: models.ComputeAggregate(driverID, ratings)}, nil
}

func (s *RatingService) Summary(ctx context.Context, driverID string) (models.RatingAggregate, error) {
	if agg, ok := s.cache.Get(ctx, driverID); ok {
		return *agg, nil
	}
	agg, err := s.aggregate(ctx, driverID)
	if err != nil {
		return models.RatingAggregate{}, err
	}
	s.cache.Set(ctx, agg)
	return agg, nil
}

func (s *RatingService) aggregate(ctx context.Context, driverID string) (models.RatingAggregate, error) {
	ratings, err := s.ratings.ListByDriver(ctx, driverID, true)
	if err != nil {
		return models.RatingAggregate{}, err
	}
	return models.ComputeAggregate(driverID, ratings), nil
}
