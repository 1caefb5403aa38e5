package models

import (
	"strings"
	"time"

	"fleet-app/pkg/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnemployedCompanyName is the display value of drivers without an employer.
const UnemployedCompanyName = "Unemployed"

const (
	AssignmentUnassigned = "UNASSIGNED"
	AssignmentAssigned   = "ASSIGNED"
)

type DLDetails struct {
	Number    string     `bson:"number" json:"number"`
	Class     string     `bson:"class" json:"class"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email               string             `bson:"email" json:"email"`
	Password            string             `bson:"password" json:"-"`
	FirstName           string             `bson:"firstName" json:"firstName"`
	LastName            string             `bson:"lastName" json:"lastName"`
	PhoneNumber         string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Role                auth.Role          `bson:"role" json:"role"`
	CompanyName         string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
	CurrentEmploymentID *string            `bson:"currentEmploymentId,omitempty" json:"currentEmploymentId,omitempty"`
	AssignmentStatus    string             `bson:"assignmentStatus,omitempty" json:"assignmentStatus,omitempty"`
	DLDetails           *DLDetails         `bson:"dlDetails,omitempty" json:"dlDetails,omitempty"`
	Banned              bool               `bson:"banned" json:"banned"`
	LastSyncKey         string             `bson:"lastSyncKey,omitempty" json:"-"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsFreeAgent mirrors the hiring check: no employment id and no real employer name.
func (u *User) IsFreeAgent() bool {
	if u.Role != auth.RoleDriver {
		return false
	}
	if u.CurrentEmploymentID != nil && *u.CurrentEmploymentID != "" {
		return false
	}
	name := strings.TrimSpace(u.CompanyName)
	return name == "" || strings.EqualFold(name, UnemployedCompanyName)
}

// InternalUpdate is sent by driver-management-service when employment changes.
type InternalUpdate struct {
	CompanyName         *string `json:"companyName"`
	AssignmentStatus    *string `json:"assignmentStatus" validate:"omitempty,oneof=UNASSIGNED ASSIGNED"`
	CurrentEmploymentID *string `json:"currentEmploymentId"`
	ReleaseEmployment   bool    `json:"releaseEmployment"`
}

func (u InternalUpdate) IsEmpty() bool {
	return u.CompanyName == nil && u.AssignmentStatus == nil && u.CurrentEmploymentID == nil && !u.ReleaseEmployment
}
