package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/repository"
	"fleet-app/pkg/events"
)

func TestTerminateEmploymentReleasesDriver(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, e := env.hire(companyCaller, driverCaller)
	env.worker.RunOnce(ctx)
	env.clock.Advance(24 * time.Hour)

	got, err := env.emps.Terminate(ctx, companyCaller, e.ID, EndEmploymentInput{Reason: models.TerminationResignation})
	if err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if got.Status != models.EmploymentTerminated || got.EndDate == nil || !got.EndDate.Equal(env.clock.now) {
		t.Errorf("employment = %+v", got)
	}
	if got.Termination.InitiatedBy != models.InitiatedByCompany {
		t.Errorf("initiatedBy = %s", got.Termination.InitiatedBy)
	}

	env.worker.RunOnce(ctx)
	calls := env.identity.updates()
	if len(calls) != 2 {
		t.Fatalf("identity calls = %+v", calls)
	}
	release := calls[1].Update
	if release.CompanyName == nil || *release.CompanyName != "Unemployed" || !release.ReleaseEmployment {
		t.Errorf("release update = %+v", release)
	}

	// the driver can be hired again
	if _, err := env.jobs.Create(ctx, otherCompany, offer("d1")); err != nil {
		t.Errorf("offer after termination: %v", err)
	}
}

func TestTerminateGuards(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, e := env.hire(companyCaller, driverCaller)

	if _, err := env.emps.Terminate(ctx, otherCompany, e.ID, EndEmploymentInput{Reason: models.TerminationOther}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("other company: %v", err)
	}
	if _, err := env.emps.Terminate(ctx, companyCaller, e.ID, EndEmploymentInput{Reason: "BORED"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("bad reason: %v", err)
	}
	if _, err := env.emps.Terminate(ctx, companyCaller, e.ID, EndEmploymentInput{Reason: models.TerminationPerformance}); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if _, err := env.emps.Terminate(ctx, companyCaller, e.ID, EndEmploymentInput{Reason: models.TerminationPerformance}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("second terminate: %v", err)
	}
	if _, err := env.emps.Resign(ctx, driverCaller, e.ID, EndEmploymentInput{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("resign after termination: %v", err)
	}
}

func TestResign(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, e := env.hire(companyCaller, driverCaller)

	if _, err := env.emps.Resign(ctx, otherDriver, e.ID, EndEmploymentInput{}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("other driver: %v", err)
	}
	got, err := env.emps.Resign(ctx, driverCaller, e.ID, EndEmploymentInput{Details: "moving cities"})
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if got.Status != models.EmploymentResigned || got.Termination.Reason != models.TerminationResignation || got.Termination.InitiatedBy != models.InitiatedByDriver {
		t.Errorf("employment = %+v", got)
	}
	types := env.emitter.types()
	if types[len(types)-1] != events.EmploymentResigned {
		t.Errorf("events = %v", types)
	}
}

func TestUpdateDriverAssignmentStatusIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.hire(companyCaller, driverCaller)
	before := len(env.emitter.types())
	env.clock.Advance(time.Hour)

	for i := 0; i < 2; i++ {
		e, err := env.emps.UpdateDriverAssignmentStatus(ctx, "d1", "ASSIGNED")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if e.AssignmentStatus != models.Assigned {
			t.Errorf("call %d: status = %s", i, e.AssignmentStatus)
		}
		if !e.UpdatedAt.Equal(env.clock.now) {
			t.Errorf("call %d: updatedAt = %v, want %v", i, e.UpdatedAt, env.clock.now)
		}
	}
	all, _ := env.employments.List(ctx, repository.EmploymentFilter{DriverID: "d1"})
	assigned := 0
	for _, e := range all {
		if e.AssignmentStatus == models.Assigned {
			assigned++
		}
	}
	if assigned != 1 {
		t.Errorf("assigned employments = %d", assigned)
	}
	if got := len(env.emitter.types()) - before; got != 1 {
		t.Errorf("assignment events = %d, want 1", got)
	}
}

func TestUpdateDriverAssignmentStatusErrors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	if _, err := env.emps.UpdateDriverAssignmentStatus(ctx, "d1", "BUSY"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("bad value: %v", err)
	}
	if _, err := env.emps.UpdateDriverAssignmentStatus(ctx, "d1", "ASSIGNED"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("no active employment: %v", err)
	}
}

func TestGetAvailableDrivers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.hire(companyCaller, driverCaller)
	env.hire(companyCaller, otherDriver)
	env.emps.UpdateDriverAssignmentStatus(ctx, "d1", "ASSIGNED")

	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	env.trips.trips = []models.Trip{
		{ID: "t1", CompanyID: "c1", DriverID: "d2", Status: models.TripScheduled, StartDateTime: start.Add(time.Hour), EndDateTime: start.Add(3 * time.Hour)},
	}

	t.Run("without window uses assignment flag", func(t *testing.T) {
		got, err := env.emps.GetAvailableDrivers(ctx, "c1", nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].DriverID != "d2" || got[0].Driver == nil {
			t.Errorf("available = %+v", got)
		}
	})

	t.Run("window overlapping a trip", func(t *testing.T) {
		got, _ := env.emps.GetAvailableDrivers(ctx, "c1", &models.TimeWindow{Start: start, End: start.Add(time.Hour)})
		if len(got) != 1 || got[0].DriverID != "d1" {
			t.Errorf("available = %+v", got)
		}
	})

	t.Run("window after the trip", func(t *testing.T) {
		got, _ := env.emps.GetAvailableDrivers(ctx, "c1", &models.TimeWindow{Start: start.Add(4 * time.Hour), End: start.Add(5 * time.Hour)})
		if len(got) != 2 {
			t.Errorf("available = %+v", got)
		}
	})

	t.Run("trip service down falls back to flag", func(t *testing.T) {
		env.trips.err = errors.New("connection refused")
		defer func() { env.trips.err = nil }()
		got, err := env.emps.GetAvailableDrivers(ctx, "c1", &models.TimeWindow{Start: start, End: start.Add(time.Hour)})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].DriverID != "d2" {
			t.Errorf("available = %+v", got)
		}
	})

	t.Run("identity down leaves profile empty", func(t *testing.T) {
		env.identity.getErr = errors.New("timeout")
		defer func() { env.identity.getErr = nil }()
		got, err := env.emps.GetAvailableDrivers(ctx, "c1", nil)
		if err != nil || len(got) != 1 || got[0].Driver != nil {
			t.Errorf("available = %+v, %v", got, err)
		}
	})

	t.Run("inverted window", func(t *testing.T) {
		_, err := env.emps.GetAvailableDrivers(ctx, "c1", &models.TimeWindow{Start: start, End: start.Add(-time.Hour)})
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestAssignVehicleAndLookup(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, e := env.hire(companyCaller, driverCaller)
	env.vehicles.vehicles["v1"] = models.Vehicle{ID: "v1", CompanyID: "c1", RegistrationNumber: "KA01AB1234", IsActive: true}
	env.vehicles.vehicles["v2"] = models.Vehicle{ID: "v2", CompanyID: "c2", IsActive: true}

	view, err := env.emps.GetMyAssignedVehicle(ctx, "d1")
	if err != nil || view.Vehicle != nil {
		t.Fatalf("before assignment: %+v, %v", view, err)
	}

	if _, err := env.emps.AssignVehicle(ctx, companyCaller, e.ID, "v2"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("foreign vehicle: %v", err)
	}
	if _, err := env.emps.AssignVehicle(ctx, companyCaller, e.ID, "v9"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing vehicle: %v", err)
	}
	if _, err := env.emps.AssignVehicle(ctx, companyCaller, e.ID, "v1"); err != nil {
		t.Fatalf("AssignVehicle: %v", err)
	}

	view, err = env.emps.GetMyAssignedVehicle(ctx, "d1")
	if err != nil || view.Vehicle == nil || view.Vehicle.RegistrationNumber != "KA01AB1234" {
		t.Errorf("assigned vehicle = %+v, %v", view, err)
	}

	env.vehicles.err = errors.New("vehicle service down")
	view, err = env.emps.GetMyAssignedVehicle(ctx, "d1")
	if err != nil || view.Vehicle != nil || view.Employment.AssignedVehicleID != "v1" {
		t.Errorf("degraded lookup = %+v, %v", view, err)
	}

	if _, err := env.emps.GetMyAssignedVehicle(ctx, "d2"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("no employment: %v", err)
	}
}

func TestGetEmploymentAccess(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, e := env.hire(companyCaller, driverCaller)

	if _, err := env.emps.Get(ctx, driverCaller, e.ID); err != nil {
		t.Errorf("driver: %v", err)
	}
	if _, err := env.emps.Get(ctx, otherCompany, e.ID); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("other company: %v", err)
	}
	list, err := env.emps.ListForCompany(ctx, "c1", models.EmploymentActive)
	if err != nil || len(list) != 1 {
		t.Errorf("company list = %d, %v", len(list), err)
	}
}
