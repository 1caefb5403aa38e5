package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/validation"
	"fleet-app/trip-service/internal/models"
	"fleet-app/trip-service/internal/repository"
	"fleet-app/trip-service/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripCache interface {
	GetCompany(ctx context.Context, companyID string) ([]models.Trip, bool)
	SetCompany(ctx context.Context, companyID string, trips []models.Trip)
	InvalidateCompany(ctx context.Context, companyID string)
}

type Propagator interface {
	Propagate(driverID, status string)
}

type Notifier interface {
	Notify(n utils.NotificationRequest)
}

type CreateTripInput struct {
	VehicleID     string    `json:"vehicleId" validate:"required"`
	DriverID      string    `json:"driverId"`
	Origin        string    `json:"origin" validate:"required"`
	Destination   string    `json:"destination" validate:"required"`
	StartDateTime time.Time `json:"startDateTime" validate:"required"`
	EndDateTime   time.Time `json:"endDateTime" validate:"required"`
	Notes         string    `json:"notes" validate:"max=1000"`
}

type TripService struct {
	repo       repository.TripRepository
	cache      TripCache
	propagator Propagator
	notifier   Notifier
	now        func() time.Time
}

func NewTripService(repo repository.TripRepository, cache TripCache, propagator Propagator, notifier Notifier) *TripService {
	return &TripService{
		repo:       repo,
		cache:      cache,
		propagator: propagator,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *TripService) CreateTrip(ctx context.Context, caller auth.Caller, in CreateTripInput) (*models.Trip, error) {
	if !caller.IsCompany() {
		return nil, fmt.Errorf("%w: only companies can schedule trips", models.ErrForbidden)
	}
	if errs := validation.Struct(in); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(errs, "; "))
	}
	if !in.EndDateTime.After(in.StartDateTime) {
		return nil, fmt.Errorf("%w: endDateTime must be after startDateTime", models.ErrValidation)
	}

	now := s.now()
	trip := &models.Trip{
		CompanyID:     caller.ID,
		VehicleID:     in.VehicleID,
		Origin:        in.Origin,
		Destination:   in.Destination,
		StartDateTime: in.StartDateTime.UTC(),
		EndDateTime:   in.EndDateTime.UTC(),
		Status:        models.StatusScheduled,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.DriverID != "" {
		if err := s.checkDriverFree(ctx, in.DriverID, trip); err != nil {
			return nil, err
		}
		trip.DriverID = in.DriverID
	}
	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, err
	}
	s.cache.InvalidateCompany(ctx, trip.CompanyID)

	if trip.DriverID != "" {
		s.propagator.Propagate(trip.DriverID, models.AssignmentAssigned)
		s.notifyDriver(trip, "TRIP_ASSIGNED", "New trip assigned")
	}
	return trip, nil
}

// AssignDriver puts driverID on a scheduled trip. A driver already holding an
// overlapping active trip is a conflict. The replaced driver is released when
// this was their last active trip.
func (s *TripService) AssignDriver(ctx context.Context, caller auth.Caller, id primitive.ObjectID, driverID string) (*models.Trip, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, fmt.Errorf("%w: driverId is required", models.ErrValidation)
	}
	trip, err := s.ownedTrip(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.StatusScheduled {
		return nil, fmt.Errorf("%w: only scheduled trips can be assigned", models.ErrValidation)
	}
	if trip.DriverID == driverID {
		return trip, nil
	}
	if err := s.checkDriverFree(ctx, driverID, trip); err != nil {
		return nil, err
	}

	previous := trip.DriverID
	trip.DriverID = driverID
	trip.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, trip, models.StatusScheduled); err != nil {
		return nil, err
	}
	s.cache.InvalidateCompany(ctx, trip.CompanyID)

	s.propagator.Propagate(driverID, models.AssignmentAssigned)
	s.notifyDriver(trip, "TRIP_ASSIGNED", "New trip assigned")
	if previous != "" {
		s.release(ctx, previous, trip.ID)
	}
	return trip, nil
}

func (s *TripService) StartTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.driverTrip(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.StatusScheduled {
		return nil, fmt.Errorf("%w: trip is %s", models.ErrValidation, trip.Status)
	}
	trip.Status = models.StatusInProgress
	trip.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, trip, models.StatusScheduled); err != nil {
		return nil, err
	}
	s.cache.InvalidateCompany(ctx, trip.CompanyID)
	return trip, nil
}

func (s *TripService) CompleteTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.driverTrip(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.StatusInProgress {
		return nil, fmt.Errorf("%w: trip is %s", models.ErrValidation, trip.Status)
	}
	if err := s.finish(ctx, trip, models.StatusCompleted); err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *TripService) CancelTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.ownedTrip(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !trip.IsActive() {
		return nil, fmt.Errorf("%w: trip is %s", models.ErrValidation, trip.Status)
	}
	if err := s.finish(ctx, trip, models.StatusCancelled); err != nil {
		return nil, err
	}
	if trip.DriverID != "" {
		s.notifyDriver(trip, "TRIP_CANCELLED", "Trip cancelled")
	}
	return trip, nil
}

// AutoCompleteOverdue completes in-progress trips that ended before the cutoff.
func (s *TripService) AutoCompleteOverdue(ctx context.Context, grace time.Duration) int {
	trips, err := s.repo.ListOverdue(ctx, s.now().Add(-grace))
	if err != nil {
		log.Printf("[CRON] Failed to fetch overdue trips: %v", err)
		return 0
	}
	done := 0
	for i := range trips {
		trip := &trips[i]
		if err := s.finish(ctx, trip, models.StatusCompleted); err != nil {
			log.Printf("[CRON] Failed to auto-complete trip %s: %v", trip.ID.Hex(), err)
			continue
		}
		done++
	}
	if done > 0 {
		log.Printf("[CRON] Auto-completed %d overdue trips", done)
	}
	return done
}

func (s *TripService) GetTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() || trip.CompanyID == caller.ID || (trip.DriverID != "" && trip.DriverID == caller.ID) {
		return trip, nil
	}
	return nil, fmt.Errorf("%w: not a party to this trip", models.ErrForbidden)
}

func (s *TripService) GetMyTrips(ctx context.Context, driverID string) ([]models.Trip, error) {
	return s.repo.List(ctx, models.TripFilter{DriverID: driverID})
}

func (s *TripService) GetCompanyTrips(ctx context.Context, companyID string) ([]models.Trip, error) {
	if cached, ok := s.cache.GetCompany(ctx, companyID); ok {
		return cached, nil
	}
	return s.RefreshCompany(ctx, companyID)
}

// RefreshCompany reloads a company's trip list into the cache.
func (s *TripService) RefreshCompany(ctx context.Context, companyID string) ([]models.Trip, error) {
	trips, err := s.repo.List(ctx, models.TripFilter{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	s.cache.SetCompany(ctx, companyID, trips)
	return trips, nil
}

func (s *TripService) ListInternal(ctx context.Context, f models.TripFilter) ([]models.Trip, error) {
	for _, st := range f.Statuses {
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, st)
		}
	}
	return s.repo.List(ctx, f)
}

func (s *TripService) finish(ctx context.Context, trip *models.Trip, status models.TripStatus) error {
	expected := trip.Status
	trip.Status = status
	trip.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, trip, expected); err != nil {
		return err
	}
	s.cache.InvalidateCompany(ctx, trip.CompanyID)
	if trip.DriverID != "" {
		s.release(ctx, trip.DriverID, trip.ID)
	}
	return nil
}

// release marks the driver UNASSIGNED unless another active trip still holds them.
func (s *TripService) release(ctx context.Context, driverID string, exclude primitive.ObjectID) {
	n, err := s.repo.CountActiveForDriver(ctx, driverID, exclude)
	if err != nil {
		log.Printf("[PROPAGATOR] Failed to count active trips of %s: %v", driverID, err)
		return
	}
	if n == 0 {
		s.propagator.Propagate(driverID, models.AssignmentUnassigned)
	}
}

func (s *TripService) checkDriverFree(ctx context.Context, driverID string, trip *models.Trip) error {
	clash, err := s.repo.FindDriverOverlap(ctx, driverID, trip.StartDateTime, trip.EndDateTime, trip.ID)
	if err != nil {
		return err
	}
	if clash != nil {
		return fmt.Errorf("%w: driver already has trip %s in this window", models.ErrConflict, clash.ID.Hex())
	}
	return nil
}

func (s *TripService) ownedTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.CompanyID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: trip belongs to another company", models.ErrForbidden)
	}
	return trip, nil
}

func (s *TripService) driverTrip(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.DriverID == "" || trip.DriverID != caller.ID {
		return nil, fmt.Errorf("%w: trip is not assigned to you", models.ErrForbidden)
	}
	return trip, nil
}

func (s *TripService) notifyDriver(trip *models.Trip, kind, title string) {
	s.notifier.Notify(utils.NotificationRequest{
		UserID:        trip.DriverID,
		Type:          kind,
		Title:         title,
		Message:       fmt.Sprintf("%s to %s on %s", trip.Origin, trip.Destination, trip.StartDateTime.Format("02 Jan 2006 15:04")),
		RelatedEntity: &utils.RelatedEntity{Type: "Trip", ID: trip.ID.Hex()},
		Priority:      "medium",
	})
}
