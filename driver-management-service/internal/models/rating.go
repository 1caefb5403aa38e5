package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5
)

type CategoryRatings struct {
	Safety          *int `bson:"safety,omitempty" json:"safety,omitempty" validate:"omitempty,min=1,max=5"`
	Punctuality     *int `bson:"punctuality,omitempty" json:"punctuality,omitempty" validate:"omitempty,min=1,max=5"`
	Professionalism *int `bson:"professionalism,omitempty" json:"professionalism,omitempty" validate:"omitempty,min=1,max=5"`
	VehicleCare     *int `bson:"vehicleCare,omitempty" json:"vehicleCare,omitempty" validate:"omitempty,min=1,max=5"`
	Communication   *int `bson:"communication,omitempty" json:"communication,omitempty" validate:"omitempty,min=1,max=5"`
}

func (c CategoryRatings) Validate() error {
	var errs ValidationErrors
	check := func(name string, v *int) {
		if v != nil && (*v < MinRating || *v > MaxRating) {
			errs = append(errs, fmt.Sprintf("%s must be between %d and %d", name, MinRating, MaxRating))
		}
	}
	check("safety", c.Safety)
	check("punctuality", c.Punctuality)
	check("professionalism", c.Professionalism)
	check("vehicleCare", c.VehicleCare)
	check("communication", c.Communication)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func ValidateOverallRating(v int) error {
	if v < MinRating || v > MaxRating {
		return ValidationErrors{fmt.Sprintf("overallRating must be between %d and %d", MinRating, MaxRating)}
	}
	return nil
}

type RatedBy struct {
	UserID    string `bson:"userId" json:"userId"`
	CompanyID string `bson:"companyId" json:"companyId"`
	Role      string `bson:"role" json:"role"`
}

type RatingEdit struct {
	PreviousRating int       `bson:"previousRating" json:"previousRating"`
	EditedAt       time.Time `bson:"editedAt" json:"editedAt"`
	EditedBy       string    `bson:"editedBy" json:"editedBy"`
}

type DriverRating struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DriverID        string             `bson:"driverId" json:"driverId"`
	RatedBy         RatedBy            `bson:"ratedBy" json:"ratedBy"`
	EmploymentID    string             `bson:"employmentId,omitempty" json:"employmentId,omitempty"`
	OverallRating   int                `bson:"overallRating" json:"overallRating"`
	CategoryRatings CategoryRatings    `bson:"categoryRatings" json:"categoryRatings"`
	Comment         string             `bson:"comment,omitempty" json:"comment,omitempty"`
	IsApproved      bool               `bson:"isApproved" json:"isApproved"`
	EditHistory     []RatingEdit       `bson:"editHistory,omitempty" json:"editHistory,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type RatingBreakdown struct {
	Safety          float64 `json:"safety"`
	Punctuality     float64 `json:"punctuality"`
	Professionalism float64 `json:"professionalism"`
	VehicleCare     float64 `json:"vehicleCare"`
	Communication   float64 `json:"communication"`
}

type RatingAggregate struct {
	DriverID      string          `json:"driverId"`
	AverageRating float64         `json:"averageRating"`
	TotalRatings  int             `json:"totalRatings"`
	Breakdown     RatingBreakdown `json:"breakdown"`
}

type mean struct {
	sum   int
	count int
}

func (m *mean) add(v *int) {
	if v != nil {
		m.sum += *v
		m.count++
	}
}

func (m mean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return round1(float64(m.sum) / float64(m.count))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputeAggregate derives the driver's averages from approved ratings only.
// Category means only count ratings that scored that category.
func ComputeAggregate(driverID string, ratings []DriverRating) RatingAggregate {
	var overall, safety, punctuality, professionalism, vehicleCare, communication mean
	for i := range ratings {
		r := ratings[i]
		if !r.IsApproved {
			continue
		}
		v := r.OverallRating
		overall.add(&v)
		safety.add(r.CategoryRatings.Safety)
		punctuality.add(r.CategoryRatings.Punctuality)
		professionalism.add(r.CategoryRatings.Professionalism)
		vehicleCare.add(r.CategoryRatings.VehicleCare)
		communication.add(r.CategoryRatings.Communication)
	}
	return RatingAggregate{
		DriverID:      driverID,
		AverageRating: overall.value(),
		TotalRatings:  overall.count,
		Breakdown: RatingBreakdown{
			Safety:          safety.value(),
			Punctuality:     punctuality.value(),
			Professionalism: professionalism.value(),
			VehicleCare:     vehicleCare.value(),
			Communication:   communication.value(),
		},
	}
}
