package services

import (
	"context"
	"time"

	"fleet-app/driver-management-service/internal/models"
)

// IdentityStore is the part of user-management-service the core depends on.
type IdentityStore interface {
	GetUser(ctx context.Context, id string) (*models.DriverProfile, error)
	InternalUpdate(ctx context.Context, userID string, update models.IdentityUpdate, idempotencyKey string) error
}

type TripLister interface {
	ListTrips(ctx context.Context, q models.TripQuery) ([]models.Trip, error)
}

type VehicleLookup interface {
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
}

// Notifier delivers notifications without blocking or failing the caller.
type Notifier interface {
	Notify(n models.NotificationRequest)
}

// SyncTrigger wakes the identity sync worker after a commit.
type SyncTrigger interface {
	Kick()
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func RealClock() Clock { return realClock{} }

type RatingCache interface {
	Get(ctx context.Context, driverID string) (*models.RatingAggregate, bool)
	Set(ctx context.Context, agg models.RatingAggregate)
	Invalidate(ctx context.Context, driverID string)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*models.RatingAggregate, bool) { return nil, false }
func (noopCache) Set(context.Context, models.RatingAggregate)                 {}
func (noopCache) Invalidate(context.Context, string)                          {}

type noopTrigger struct{}

func (noopTrigger) Kick() {}
