package models

import (
	"fmt"
	"strings"
	"time"

	"fleet-app/pkg/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle is a company-owned vehicle that drivers can be assigned to.
type Vehicle struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CompanyID          string             `json:"companyId" bson:"companyId"`
	RegistrationNumber string             `json:"registrationNumber" bson:"registrationNumber" validate:"required,max=20"`
	Make               string             `json:"make" bson:"make" validate:"required"`
	Model              string             `json:"model" bson:"model" validate:"required"`
	Year               int                `json:"year" bson:"year" validate:"required,gte=1950,lte=2100"`
	VehicleType        string             `json:"vehicleType" bson:"vehicleType" validate:"required,oneof=truck van car bus trailer"`
	IsActive           bool               `json:"isActive" bson:"isActive"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Normalize uppercases the plate and trims free text before validation.
func (v *Vehicle) Normalize() {
	v.RegistrationNumber = strings.ToUpper(strings.Join(strings.Fields(v.RegistrationNumber), ""))
	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.VehicleType = strings.ToLower(strings.TrimSpace(v.VehicleType))
}

func (v Vehicle) Validate() error {
	if errs := validation.Struct(v); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, " // "))
	}
	return nil
}

type VehicleStatusUpdate struct {
	IsActive *bool `json:"isActive"`
}
