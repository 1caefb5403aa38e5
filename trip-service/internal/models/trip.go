package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound   = errors.New("trip not found")
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

type TripStatus string

const (
	StatusScheduled  TripStatus = "scheduled"
	StatusInProgress TripStatus = "in_progress"
	StatusCompleted  TripStatus = "completed"
	StatusCancelled  TripStatus = "cancelled"
)

func (s TripStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ActiveStatuses are the statuses that occupy a driver.
var ActiveStatuses = []TripStatus{StatusScheduled, StatusInProgress}

const (
	AssignmentAssigned   = "ASSIGNED"
	AssignmentUnassigned = "UNASSIGNED"
)

type Trip struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID     string             `bson:"companyId" json:"companyId"`
	DriverID      string             `bson:"driverId,omitempty" json:"driverId,omitempty"`
	VehicleID     string             `bson:"vehicleId" json:"vehicleId" validate:"required"`
	Origin        string             `bson:"origin" json:"origin" validate:"required"`
	Destination   string             `bson:"destination" json:"destination" validate:"required"`
	StartDateTime time.Time          `bson:"startDateTime" json:"startDateTime" validate:"required"`
	EndDateTime   time.Time          `bson:"endDateTime" json:"endDateTime" validate:"required"`
	Status        TripStatus         `bson:"status" json:"status"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty" validate:"max=1000"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (t *Trip) IsActive() bool {
	return t.Status == StatusScheduled || t.Status == StatusInProgress
}

// Overlaps is inclusive at both ends.
func (t *Trip) Overlaps(start, end time.Time) bool {
	return !t.StartDateTime.After(end) && !t.EndDateTime.Before(start)
}

type TripFilter struct {
	CompanyID string
	DriverID  string
	VehicleID string
	Statuses  []TripStatus
}
