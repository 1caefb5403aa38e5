package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JobRequestStatus string

const (
	StatusPending   JobRequestStatus = "PENDING"
	StatusViewed    JobRequestStatus = "VIEWED"
	StatusAccepted  JobRequestStatus = "ACCEPTED"
	StatusRejected  JobRequestStatus = "REJECTED"
	StatusWithdrawn JobRequestStatus = "WITHDRAWN"
	StatusExpired   JobRequestStatus = "EXPIRED"
	StatusHired     JobRequestStatus = "HIRED"
	StatusCancelled JobRequestStatus = "CANCELLED"
)

// IsOpen reports whether the request still waits for a driver decision.
func (s JobRequestStatus) IsOpen() bool {
	return s == StatusPending || s == StatusViewed
}

func (s JobRequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusViewed, StatusAccepted, StatusRejected,
		StatusWithdrawn, StatusExpired, StatusHired, StatusCancelled:
		return true
	}
	return false
}

type SalaryFrequency string

const (
	PerKm    SalaryFrequency = "PER_KM"
	PerDay   SalaryFrequency = "PER_DAY"
	PerMonth SalaryFrequency = "PER_MONTH"
)

type RejectionReason string

const (
	RejectSalaryTooLow        RejectionReason = "SALARY_TOO_LOW"
	RejectLocationNotSuitable RejectionReason = "LOCATION_NOT_SUITABLE"
	RejectScheduleConflict    RejectionReason = "SCHEDULE_CONFLICT"
	RejectAlreadyEmployed     RejectionReason = "ALREADY_EMPLOYED"
	RejectNotInterested       RejectionReason = "NOT_INTERESTED"
	RejectOther               RejectionReason = "OTHER"
)

func (r RejectionReason) IsValid() bool {
	switch r {
	case RejectSalaryTooLow, RejectLocationNotSuitable, RejectScheduleConflict,
		RejectAlreadyEmployed, RejectNotInterested, RejectOther:
		return true
	}
	return false
}

type JobDetails struct {
	ServiceType      string   `bson:"serviceType" json:"serviceType" validate:"required"`
	VehicleType      string   `bson:"vehicleType" json:"vehicleType" validate:"required"`
	ContractDuration int      `bson:"contractDuration" json:"contractDuration" validate:"gt=0"`
	ContractUnit     string   `bson:"contractUnit" json:"contractUnit" validate:"required,oneof=Day(s) Week(s) Month(s) Year(s)"`
	Perks            []string `bson:"perks,omitempty" json:"perks,omitempty"`
	Description      string   `bson:"description,omitempty" json:"description,omitempty" validate:"max=2000"`
}

type Salary struct {
	Amount    float64         `bson:"amount" json:"amount" validate:"gt=0"`
	Currency  string          `bson:"currency" json:"currency" validate:"required"`
	Frequency SalaryFrequency `bson:"frequency" json:"frequency" validate:"required,oneof=PER_KM PER_DAY PER_MONTH"`
}

type StatusChange struct {
	Status    JobRequestStatus `bson:"status" json:"status"`
	ChangedBy string           `bson:"changedBy" json:"changedBy"`
	ChangedAt time.Time        `bson:"changedAt" json:"changedAt"`
	Reason    string           `bson:"reason,omitempty" json:"reason,omitempty"`
}

type CounterOffer struct {
	Amount    float64         `bson:"amount" json:"amount" validate:"gt=0"`
	Currency  string          `bson:"currency" json:"currency" validate:"required"`
	Frequency SalaryFrequency `bson:"frequency" json:"frequency" validate:"required,oneof=PER_KM PER_DAY PER_MONTH"`
	Message   string          `bson:"message,omitempty" json:"message,omitempty"`
}

type DriverResponse struct {
	RespondedAt    time.Time     `bson:"respondedAt" json:"respondedAt"`
	Message        string        `bson:"message,omitempty" json:"message,omitempty"`
	DLConsentGiven bool          `bson:"dlConsentGiven" json:"dlConsentGiven"`
	CounterOffer   *CounterOffer `bson:"counterOffer,omitempty" json:"counterOffer,omitempty"`
}

type Rejection struct {
	Reason     RejectionReason `bson:"reason" json:"reason"`
	Details    string          `bson:"details,omitempty" json:"details,omitempty"`
	RejectedBy string          `bson:"rejectedBy" json:"rejectedBy"`
}

type JobRequest struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CompanyID           string              `bson:"companyId" json:"companyId"`
	CompanyName         string              `bson:"companyName,omitempty" json:"companyName,omitempty"`
	DriverID            string              `bson:"driverId" json:"driverId"`
	Status              JobRequestStatus    `bson:"status" json:"status"`
	IsOpen              bool                `bson:"isOpen" json:"isOpen"`
	JobDetails          JobDetails          `bson:"jobDetails" json:"jobDetails"`
	OfferedSalary       Salary              `bson:"offeredSalary" json:"offeredSalary"`
	ExpiresAt           time.Time           `bson:"expiresAt" json:"expiresAt"`
	ViewedAt            *time.Time          `bson:"viewedAt,omitempty" json:"viewedAt,omitempty"`
	StatusHistory       []StatusChange      `bson:"statusHistory" json:"statusHistory"`
	DriverResponse      *DriverResponse     `bson:"driverResponse,omitempty" json:"driverResponse,omitempty"`
	Rejection           *Rejection          `bson:"rejection,omitempty" json:"rejection,omitempty"`
	ResultingEmployment *primitive.ObjectID `bson:"resultingEmployment,omitempty" json:"resultingEmployment,omitempty"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CanBeModified is true while the driver can still respond or the company withdraw.
func (r *JobRequest) CanBeModified() bool {
	return r.Status.IsOpen()
}

func (r *JobRequest) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// UpdateStatus is the only way the status changes: it appends to the history
// and keeps IsOpen in step with the status.
func (r *JobRequest) UpdateStatus(status JobRequestStatus, changedBy, reason string, at time.Time) {
	r.Status = status
	r.IsOpen = status.IsOpen()
	r.StatusHistory = append(r.StatusHistory, StatusChange{
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: at,
		Reason:    reason,
	})
	r.UpdatedAt = at
}
