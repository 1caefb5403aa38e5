package models

import (
	"strings"
	"time"
)

// DriverProfile is the identity store's view of a user.
type DriverProfile struct {
	ID                  string           `json:"id"`
	Email               string           `json:"email"`
	FirstName           string           `json:"firstName"`
	LastName            string           `json:"lastName"`
	PhoneNumber         string           `json:"phoneNumber,omitempty"`
	Role                string           `json:"role"`
	CompanyName         string           `json:"companyName,omitempty"`
	CurrentEmploymentID *string          `json:"currentEmploymentId,omitempty"`
	AssignmentStatus    AssignmentStatus `json:"assignmentStatus,omitempty"`
	DLDetails           *DLDetails       `json:"dlDetails,omitempty"`
}

type DLDetails struct {
	Number    string     `json:"number"`
	Class     string     `json:"class"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (p *DriverProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// IsFreeAgent tolerates legacy rows that only carry the "Unemployed" display name.
func (p *DriverProfile) IsFreeAgent() bool {
	if p.CurrentEmploymentID != nil && *p.CurrentEmploymentID != "" {
		return false
	}
	name := strings.TrimSpace(p.CompanyName)
	return name == "" || strings.EqualFold(name, UnemployedCompanyName)
}

type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

// Trip is the subset of trip fields used for availability.
type Trip struct {
	ID            string     `json:"id"`
	CompanyID     string     `json:"companyId"`
	DriverID      string     `json:"driverId,omitempty"`
	VehicleID     string     `json:"vehicleId"`
	Status        TripStatus `json:"status"`
	StartDateTime time.Time  `json:"startDateTime"`
	EndDateTime   time.Time  `json:"endDateTime"`
}

type TripQuery struct {
	CompanyID string
	DriverID  string
	VehicleID string
	Statuses  []TripStatus
}

type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Overlaps is inclusive at both ends: start <= otherEnd && end >= otherStart.
func (w TimeWindow) Overlaps(start, end time.Time) bool {
	return !w.Start.After(end) && !w.End.Before(start)
}

type Vehicle struct {
	ID                 string `json:"id"`
	CompanyID          string `json:"companyId"`
	RegistrationNumber string `json:"registrationNumber"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	Year               int    `json:"year"`
	VehicleType        string `json:"vehicleType"`
	IsActive           bool   `json:"isActive"`
}

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

type RelatedEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// NotificationRequest is the body of the notification service internal create call.
type NotificationRequest struct {
	UserID        string               `json:"userId"`
	Type          string               `json:"type"`
	Title         string               `json:"title"`
	Message       string               `json:"message"`
	RelatedEntity *RelatedEntity       `json:"relatedEntity,omitempty"`
	Metadata      map[string]string    `json:"metadata,omitempty"`
	Priority      NotificationPriority `json:"priority"`
}
