package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fleet-app/driver-management-service/internal/metrics"
	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/repository"
	"fleet-app/pkg/auth"
	"fleet-app/pkg/events"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EndEmploymentInput struct {
	Reason  models.TerminationReason
	Details string
}

type AvailableDriver struct {
	EmploymentID     string                  `json:"employmentId"`
	DriverID         string                  `json:"driverId"`
	AssignmentStatus models.AssignmentStatus `json:"assignmentStatus"`
	VehicleType      string                  `json:"vehicleType"`
	Driver           *models.DriverProfile   `json:"driver"`
}

type AssignedVehicle struct {
	Employment *models.Employment `json:"employment"`
	Vehicle    *models.Vehicle    `json:"vehicle"`
}

type EmploymentDeps struct {
	Employments repository.EmploymentRepository
	Outbox      repository.OutboxRepository
	Tx          repository.TransactionManager
	Identity    IdentityStore
	Trips       TripLister
	Vehicles    VehicleLookup
	Notifier    Notifier
	Events      events.Emitter
	Sync        SyncTrigger
	Clock       Clock
}

type EmploymentService struct {
	employments repository.EmploymentRepository
	outbox      repository.OutboxRepository
	tx          repository.TransactionManager
	identity    IdentityStore
	trips       TripLister
	vehicles    VehicleLookup
	notifier    Notifier
	events      events.Emitter
	sync        SyncTrigger
	clock       Clock
}

func NewEmploymentService(d EmploymentDeps) *EmploymentService {
	s := &EmploymentService{
		employments: d.Employments,
		outbox:      d.Outbox,
		tx:          d.Tx,
		identity:    d.Identity,
		trips:       d.Trips,
		vehicles:    d.Vehicles,
		notifier:    d.Notifier,
		events:      d.Events,
		sync:        d.Sync,
		clock:       d.Clock,
	}
	if s.tx == nil {
		s.tx = repository.NewTransactionManager(nil, false)
	}
	if s.sync == nil {
		s.sync = noopTrigger{}
	}
	if s.clock == nil {
		s.clock = RealClock()
	}
	return s
}

func (s *EmploymentService) Get(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*models.Employment, error) {
	e, err := s.employments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CanViewEmployment(caller, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EmploymentService) ListForCompany(ctx context.Context, companyID string, status models.EmploymentStatus) ([]models.Employment, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	return s.employments.List(ctx, repository.EmploymentFilter{CompanyID: companyID, Status: status})
}

func (s *EmploymentService) ListForDriver(ctx context.Context, driverID string) ([]models.Employment, error) {
	return s.employments.List(ctx, repository.EmploymentFilter{DriverID: driverID})
}

func (s *EmploymentService) Terminate(ctx context.Context, caller auth.Caller, id primitive.ObjectID, in EndEmploymentInput) (*models.Employment, error) {
	e, err := s.employments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CanManageEmployment(caller, e); err != nil {
		return nil, err
	}
	if !in.Reason.IsValid() {
		return nil, fmt.Errorf("%w: a valid termination reason is required", models.ErrValidation)
	}
	if err := s.end(ctx, e, models.EmploymentTerminated, models.InitiatedByCompany, in, caller.ID); err != nil {
		return nil, err
	}

	s.notify(e.DriverID, "EMPLOYMENT_TERMINATED", "Employment ended",
		fmt.Sprintf("%s ended your employment.", displayCompany(e.CompanyName)), e)
	s.notify(e.CompanyID, "EMPLOYMENT_TERMINATED", "Driver released",
		"The driver has been released from your fleet.", e)
	s.events.Emit(ctx, events.New(events.EmploymentTerminated, caller.ID, "Employment", e.ID.Hex(), map[string]string{
		"companyId": e.CompanyID,
		"driverId":  e.DriverID,
		"reason":    string(in.Reason),
	}))
	return e, nil
}

func (s *EmploymentService) Resign(ctx context.Context, caller auth.Caller, id primitive.ObjectID, in EndEmploymentInput) (*models.Employment, error) {
	e, err := s.employments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CanResignEmployment(caller, e); err != nil {
		return nil, err
	}
	if in.Reason == "" {
		in.Reason = models.TerminationResignation
	}
	if !in.Reason.IsValid() {
		return nil, fmt.Errorf("%w: unknown resignation reason %q", models.ErrValidation, in.Reason)
	}
	if err := s.end(ctx, e, models.EmploymentResigned, models.InitiatedByDriver, in, caller.ID); err != nil {
		return nil, err
	}

	s.notify(e.CompanyID, "EMPLOYMENT_RESIGNED", "Driver resigned",
		"A driver resigned from your fleet.", e)
	s.notify(e.DriverID, "EMPLOYMENT_RESIGNED", "Resignation confirmed",
		fmt.Sprintf("You are no longer employed by %s.", displayCompany(e.CompanyName)), e)
	s.events.Emit(ctx, events.New(events.EmploymentResigned, caller.ID, "Employment", e.ID.Hex(), map[string]string{
		"companyId": e.CompanyID,
		"driverId":  e.DriverID,
		"reason":    string(in.Reason),
	}))
	return e, nil
}

// end closes the employment and queues the identity release in one transaction.
func (s *EmploymentService) end(ctx context.Context, e *models.Employment, status models.EmploymentStatus, by models.InitiatedBy, in EndEmploymentInput, actor string) error {
	if !e.IsActive() {
		return fmt.Errorf("%w: employment is already %s", models.ErrValidation, e.Status)
	}
	now := s.clock.Now()
	ended := *e
	ended.End(status, models.Termination{
		Reason:       in.Reason,
		Details:      in.Details,
		InitiatedBy:  by,
		TerminatedAt: now,
	})

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.employments.Save(txCtx, &ended, models.EmploymentActive); err != nil {
			return err
		}
		reason := fmt.Sprintf("%s by %s", status, actor)
		return s.outbox.Insert(txCtx, models.NewIdentitySync(e.DriverID, models.ReleaseUpdate(), reason, now))
	})
	if err != nil {
		return err
	}
	*e = ended
	s.sync.Kick()
	return nil
}

// UpdateDriverAssignmentStatus is called by trip scheduling. Setting the
// current value again is a no-op.
func (s *EmploymentService) UpdateDriverAssignmentStatus(ctx context.Context, driverID, raw string) (*models.Employment, error) {
	status, ok := models.ParseAssignmentStatus(raw)
	if !ok {
		return nil, fmt.Errorf("%w: assignmentStatus must be one of UNASSIGNED, ASSIGNED", models.ErrValidation)
	}
	e, previous, err := s.employments.SetAssignmentStatus(ctx, driverID, status, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if previous != status {
		s.events.Emit(ctx, events.New(events.DriverAssignmentChange, auth.System.ID, "Employment", e.ID.Hex(), map[string]string{
			"driverId":         driverID,
			"companyId":        e.CompanyID,
			"assignmentStatus": string(status),
		}))
	}
	return e, nil
}

func (s *EmploymentService) AssignVehicle(ctx context.Context, caller auth.Caller, id primitive.ObjectID, vehicleID string) (*models.Employment, error) {
	e, err := s.employments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CanManageEmployment(caller, e); err != nil {
		return nil, err
	}
	if !e.IsActive() {
		return nil, fmt.Errorf("%w: employment is %s", models.ErrValidation, e.Status)
	}
	if vehicleID == "" {
		return nil, models.ValidationErrors{"vehicleId field is required"}
	}

	vehicle, err := s.vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s not found", models.ErrNotFound, vehicleID)
		}
		return nil, fmt.Errorf("failed to fetch vehicle: %w", err)
	}
	if vehicle.CompanyID != caller.ID {
		return nil, fmt.Errorf("%w: vehicle belongs to another company", models.ErrForbidden)
	}
	if !vehicle.IsActive {
		return nil, fmt.Errorf("%w: vehicle is not active", models.ErrValidation)
	}

	e.AssignedVehicleID = vehicleID
	e.UpdatedAt = s.clock.Now()
	if err := s.employments.Save(ctx, e, models.EmploymentActive); err != nil {
		return nil, err
	}

	s.notify(e.DriverID, "VEHICLE_ASSIGNED", "Vehicle assigned",
		fmt.Sprintf("You have been assigned vehicle %s.", vehicle.RegistrationNumber), e)
	s.events.Emit(ctx, events.New(events.VehicleAssigned, caller.ID, "Employment", e.ID.Hex(), map[string]string{
		"driverId":  e.DriverID,
		"vehicleId": vehicleID,
	}))
	return e, nil
}

// GetMyAssignedVehicle leaves Vehicle nil when nothing is assigned or the
// vehicle service cannot be reached.
func (s *EmploymentService) GetMyAssignedVehicle(ctx context.Context, driverID string) (*AssignedVehicle, error) {
	e, err := s.employments.FindActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	view := &AssignedVehicle{Employment: e}
	if e.AssignedVehicleID == "" {
		return view, nil
	}
	vehicle, err := s.vehicles.GetVehicle(ctx, e.AssignedVehicleID)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("vehicle").Inc()
		log.Printf("[VEHICLE] Failed to fetch vehicle %s for driver %s: %v", e.AssignedVehicleID, driverID, err)
		return view, nil
	}
	view.Vehicle = vehicle
	return view, nil
}

// GetAvailableDrivers lists the company's active drivers that are free. With
// a window, drivers with an overlapping scheduled or running trip are busy;
// without one, or when trips cannot be fetched, the assignment flag decides.
func (s *EmploymentService) GetAvailableDrivers(ctx context.Context, companyID string, window *models.TimeWindow) ([]AvailableDriver, error) {
	if window != nil && window.End.Before(window.Start) {
		return nil, models.ValidationErrors{"end must not be before start"}
	}
	employments, err := s.employments.List(ctx, repository.EmploymentFilter{CompanyID: companyID, Status: models.EmploymentActive})
	if err != nil {
		return nil, err
	}

	var busy map[string]bool
	if window != nil {
		trips, err := s.trips.ListTrips(ctx, models.TripQuery{
			CompanyID: companyID,
			Statuses:  []models.TripStatus{models.TripScheduled, models.TripInProgress},
		})
		if err != nil {
			metrics.CollaboratorFailures.WithLabelValues("trip").Inc()
			log.Printf("[TRIPS] Failed to fetch trips for company %s, using assignment flags: %v", companyID, err)
		} else {
			busy = map[string]bool{}
			for _, t := range trips {
				if t.DriverID != "" && window.Overlaps(t.StartDateTime, t.EndDateTime) {
					busy[t.DriverID] = true
				}
			}
		}
	}

	available := []AvailableDriver{}
	for _, e := range employments {
		if busy != nil {
			if busy[e.DriverID] {
				continue
			}
		} else if e.AssignmentStatus == models.Assigned {
			continue
		}

		d := AvailableDriver{
			EmploymentID:     e.ID.Hex(),
			DriverID:         e.DriverID,
			AssignmentStatus: e.AssignmentStatus,
			VehicleType:      e.VehicleType,
		}
		profile, err := s.identity.GetUser(ctx, e.DriverID)
		if err != nil {
			metrics.CollaboratorFailures.WithLabelValues("identity").Inc()
			log.Printf("[IDENTITY] Failed to fetch driver %s: %v", e.DriverID, err)
		} else {
			d.Driver = profile
		}
		available = append(available, d)
	}
	return available, nil
}

func (s *EmploymentService) notify(userID, kind, title, message string, e *models.Employment) {
	s.notifier.Notify(models.NotificationRequest{
		UserID:        userID,
		Type:          kind,
		Title:         title,
		Message:       message,
		RelatedEntity: &models.RelatedEntity{Type: "Employment", ID: e.ID.Hex()},
		Metadata:      map[string]string{"status": string(e.Status)},
		Priority:      models.PriorityMedium,
	})
}
