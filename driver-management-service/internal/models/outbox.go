package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SyncStatus string

const (
	SyncPending SyncStatus = "PENDING"
	SyncDone    SyncStatus = "DONE"
	// SyncFailed is terminal: the identity store refused the update.
	SyncFailed SyncStatus = "FAILED"
)

// UnemployedCompanyName is the display value written to the identity store on release.
const UnemployedCompanyName = "Unemployed"

// IdentityUpdate is the body of the identity store internal-update call.
type IdentityUpdate struct {
	CompanyName         *string           `bson:"companyName,omitempty" json:"companyName,omitempty"`
	AssignmentStatus    *AssignmentStatus `bson:"assignmentStatus,omitempty" json:"assignmentStatus,omitempty"`
	CurrentEmploymentID *string           `bson:"currentEmploymentId,omitempty" json:"currentEmploymentId,omitempty"`
	ReleaseEmployment   bool              `bson:"releaseEmployment,omitempty" json:"releaseEmployment,omitempty"`
}

func HireUpdate(companyName, employmentID string) IdentityUpdate {
	status := Unassigned
	u := IdentityUpdate{AssignmentStatus: &status, CurrentEmploymentID: &employmentID}
	if companyName != "" {
		u.CompanyName = &companyName
	}
	return u
}

func ReleaseUpdate() IdentityUpdate {
	name := UnemployedCompanyName
	status := Unassigned
	return IdentityUpdate{CompanyName: &name, AssignmentStatus: &status, ReleaseEmployment: true}
}

// IdentitySyncRecord is an outbox row written in the same transaction as the
// employment change it mirrors.
type IdentitySyncRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IdempotencyKey string             `bson:"idempotencyKey" json:"idempotencyKey"`
	DriverID       string             `bson:"driverId" json:"driverId"`
	Update         IdentityUpdate     `bson:"update" json:"update"`
	Reason         string             `bson:"reason" json:"reason"`
	Status         SyncStatus         `bson:"status" json:"status"`
	Attempts       int                `bson:"attempts" json:"attempts"`
	NextAttemptAt  time.Time          `bson:"nextAttemptAt" json:"nextAttemptAt"`
	LastError      string             `bson:"lastError,omitempty" json:"lastError,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	CompletedAt    *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

func NewIdentitySync(driverID string, update IdentityUpdate, reason string, now time.Time) *IdentitySyncRecord {
	return &IdentitySyncRecord{
		ID:             primitive.NewObjectID(),
		IdempotencyKey: uuid.NewString(),
		DriverID:       driverID,
		Update:         update,
		Reason:         reason,
		Status:         SyncPending,
		NextAttemptAt:  now,
		CreatedAt:      now,
	}
}

// Backoff returns base * 2^attempts, capped at max.
func Backoff(base, max time.Duration, attempts int) time.Duration {
	d := base
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
