package services

import (
	"context"
	"errors"
	"testing"

	"fleet-app/driver-management-service/internal/models"
)

func TestRatingAggregate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var last *RatingResult
	for _, score := range []int{5, 4, 3} {
		res, err := env.rating.Create(ctx, companyCaller, CreateRatingInput{DriverID: "d1", OverallRating: score})
		if err != nil {
			t.Fatalf("Create(%d): %v", score, err)
		}
		last = res
	}
	if last.Aggregate.AverageRating != 4.0 || last.Aggregate.TotalRatings != 3 {
		t.Errorf("aggregate = %+v", last.Aggregate)
	}
	if !last.Rating.IsApproved {
		t.Error("new ratings are approved by default")
	}
}

func TestRatingSummaryEmpty(t *testing.T) {
	env := newTestEnv()
	agg, err := env.rating.Summary(context.Background(), "d9")
	if err != nil {
		t.Fatal(err)
	}
	if agg.AverageRating != 0 || agg.TotalRatings != 0 || agg.Breakdown != (models.RatingBreakdown{}) {
		t.Errorf("aggregate = %+v", agg)
	}
}

func TestDuplicateEmploymentRating(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, e := env.hire(companyCaller, driverCaller)

	in := CreateRatingInput{DriverID: "d1", EmploymentID: e.ID.Hex(), OverallRating: 4}
	if _, err := env.rating.Create(ctx, companyCaller, in); err != nil {
		t.Fatalf("first rating: %v", err)
	}
	if _, err := env.rating.Create(ctx, companyCaller, in); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("second rating: err = %v, want conflict", err)
	}
	if _, err := env.rating.Create(ctx, otherCompany, in); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("foreign employment: %v", err)
	}
	in.DriverID = "d2"
	if _, err := env.rating.Create(ctx, companyCaller, in); !errors.Is(err, models.ErrValidation) {
		t.Errorf("wrong driver: %v", err)
	}
}

func TestRatingValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	bad := 9
	tests := []CreateRatingInput{
		{DriverID: "d1", OverallRating: 0},
		{DriverID: "d1", OverallRating: 6},
		{DriverID: "d1", OverallRating: 3, CategoryRatings: models.CategoryRatings{Safety: &bad}},
		{DriverID: "d1", OverallRating: 3, EmploymentID: "not-an-id"},
		{OverallRating: 3},
	}
	for _, in := range tests {
		if _, err := env.rating.Create(ctx, companyCaller, in); !errors.Is(err, models.ErrValidation) {
			t.Errorf("Create(%+v) err = %v", in, err)
		}
	}
	if _, err := env.rating.Create(ctx, driverCaller, CreateRatingInput{DriverID: "d2", OverallRating: 3}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("driver rating a driver: %v", err)
	}
}

func TestUpdateRatingKeepsHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	created, _ := env.rating.Create(ctx, companyCaller, CreateRatingInput{DriverID: "d1", OverallRating: 2})

	// warm the cache
	if _, err := env.rating.Summary(ctx, "d1"); err != nil {
		t.Fatal(err)
	}

	five := 5
	res, err := env.rating.Update(ctx, companyCaller, created.Rating.ID, UpdateRatingInput{OverallRating: &five})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Rating.OverallRating != 5 || len(res.Rating.EditHistory) != 1 || res.Rating.EditHistory[0].PreviousRating != 2 {
		t.Errorf("rating = %+v", res.Rating)
	}

	summary, _ := env.rating.Summary(ctx, "d1")
	if summary.AverageRating != 5 {
		t.Errorf("summary served stale cache: %+v", summary)
	}

	if _, err := env.rating.Update(ctx, otherCompany, created.Rating.ID, UpdateRatingInput{OverallRating: &five}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("other company update: %v", err)
	}
	if _, err := env.rating.Update(ctx, companyCaller, created.Rating.ID, UpdateRatingInput{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("empty update: %v", err)
	}
}

func TestListForDriver(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.rating.Create(ctx, companyCaller, CreateRatingInput{DriverID: "d1", OverallRating: 4})
	env.ratings.items = append(env.ratings.items, models.DriverRating{DriverID: "d1", OverallRating: 1, IsApproved: false})

	got, err := env.rating.ListForDriver(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Ratings) != 1 || got.Aggregate.AverageRating != 4 {
		t.Errorf("ratings = %+v", got)
	}
}
