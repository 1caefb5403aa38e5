package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmploymentStatus string

const (
	EmploymentActive     EmploymentStatus = "ACTIVE"
	EmploymentTerminated EmploymentStatus = "TERMINATED"
	EmploymentResigned   EmploymentStatus = "RESIGNED"
)

func (s EmploymentStatus) IsValid() bool {
	return s == EmploymentActive || s == EmploymentTerminated || s == EmploymentResigned
}

type AssignmentStatus string

const (
	Unassigned AssignmentStatus = "UNASSIGNED"
	Assigned   AssignmentStatus = "ASSIGNED"
)

func ParseAssignmentStatus(raw string) (AssignmentStatus, bool) {
	switch AssignmentStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case Unassigned:
		return Unassigned, true
	case Assigned:
		return Assigned, true
	}
	return "", false
}

type TerminationReason string

const (
	TerminationPerformance     TerminationReason = "PERFORMANCE"
	TerminationMisconduct      TerminationReason = "MISCONDUCT"
	TerminationContractEnd     TerminationReason = "CONTRACT_END"
	TerminationResignation     TerminationReason = "RESIGNATION"
	TerminationRedundancy      TerminationReason = "REDUNDANCY"
	TerminationMutualAgreement TerminationReason = "MUTUAL_AGREEMENT"
	TerminationOther           TerminationReason = "OTHER"
)

func (r TerminationReason) IsValid() bool {
	switch r {
	case TerminationPerformance, TerminationMisconduct, TerminationContractEnd, TerminationResignation,
		TerminationRedundancy, TerminationMutualAgreement, TerminationOther:
		return true
	}
	return false
}

type InitiatedBy string

const (
	InitiatedByCompany InitiatedBy = "COMPANY"
	InitiatedByDriver  InitiatedBy = "DRIVER"
)

type Termination struct {
	Reason       TerminationReason `bson:"reason" json:"reason"`
	Details      string            `bson:"details,omitempty" json:"details,omitempty"`
	InitiatedBy  InitiatedBy       `bson:"initiatedBy" json:"initiatedBy"`
	TerminatedAt time.Time         `bson:"terminatedAt" json:"terminatedAt"`
}

type Employment struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DriverID          string             `bson:"driverId" json:"driverId"`
	CompanyID         string             `bson:"companyId" json:"companyId"`
	CompanyName       string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
	SourceJobRequest  primitive.ObjectID `bson:"sourceJobRequest" json:"sourceJobRequest"`
	ServiceType       string             `bson:"serviceType" json:"serviceType"`
	VehicleType       string             `bson:"vehicleType" json:"vehicleType"`
	ContractDuration  int                `bson:"contractDuration" json:"contractDuration"`
	ContractUnit      string             `bson:"contractUnit" json:"contractUnit"`
	Perks             []string           `bson:"perks,omitempty" json:"perks,omitempty"`
	Salary            Salary             `bson:"salary" json:"salary"`
	Status            EmploymentStatus   `bson:"status" json:"status"`
	AssignmentStatus  AssignmentStatus   `bson:"assignmentStatus" json:"assignmentStatus"`
	AssignedVehicleID string             `bson:"assignedVehicleId,omitempty" json:"assignedVehicleId,omitempty"`
	StartDate         time.Time          `bson:"startDate" json:"startDate"`
	EndDate           *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Termination       *Termination       `bson:"termination,omitempty" json:"termination,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewEmploymentFromJobRequest copies the offer snapshot; the employment never
// reads the job request again after this.
func NewEmploymentFromJobRequest(r *JobRequest, companyName string, now time.Time) *Employment {
	perks := append([]string(nil), r.JobDetails.Perks...)
	return &Employment{
		ID:               primitive.NewObjectID(),
		DriverID:         r.DriverID,
		CompanyID:        r.CompanyID,
		CompanyName:      companyName,
		SourceJobRequest: r.ID,
		ServiceType:      r.JobDetails.ServiceType,
		VehicleType:      r.JobDetails.VehicleType,
		ContractDuration: r.JobDetails.ContractDuration,
		ContractUnit:     r.JobDetails.ContractUnit,
		Perks:            perks,
		Salary:           r.OfferedSalary,
		Status:           EmploymentActive,
		AssignmentStatus: Unassigned,
		StartDate:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (e *Employment) IsActive() bool {
	return e.Status == EmploymentActive
}

// End moves an active employment into a terminal state.
func (e *Employment) End(status EmploymentStatus, t Termination) {
	end := t.TerminatedAt
	e.Status = status
	e.EndDate = &end
	e.Termination = &t
	e.AssignmentStatus = Unassigned
	e.UpdatedAt = end
}
