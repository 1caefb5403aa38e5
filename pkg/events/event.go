package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	JobRequestCreated      = "JOB_REQUEST_CREATED"
	JobRequestViewed       = "JOB_REQUEST_VIEWED"
	JobRequestCountered    = "JOB_REQUEST_COUNTERED"
	JobRequestRejected     = "JOB_REQUEST_REJECTED"
	JobRequestWithdrawn    = "JOB_REQUEST_WITHDRAWN"
	JobRequestExpired      = "JOB_REQUEST_EXPIRED"
	JobRequestCancelled    = "JOB_REQUEST_CANCELLED"
	DriverHired            = "DRIVER_HIRED"
	EmploymentTerminated   = "EMPLOYMENT_TERMINATED"
	EmploymentResigned     = "EMPLOYMENT_RESIGNED"
	DriverAssignmentChange = "DRIVER_ASSIGNMENT_CHANGED"
	VehicleAssigned        = "VEHICLE_ASSIGNED"
	DriverRated            = "DRIVER_RATED"
)

// DefaultChannel is the Redis channel / AMQP queue carrying hiring events.
const DefaultChannel = "hiring_events"

type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurredAt"`
	ActorID    string            `json:"actorId,omitempty"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityId"`
	Payload    map[string]string `json:"payload,omitempty"`
}

func New(eventType, actorID, entityType, entityID string, payload map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
	}
}

// Emitter is what services depend on; emission never fails the caller.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Sink delivers events to a transport.
type Sink interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Handler consumes events on the receiving side.
type Handler func(ctx context.Context, e Event)
