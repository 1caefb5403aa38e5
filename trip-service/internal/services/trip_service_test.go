package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-app/pkg/auth"
	"fleet-app/trip-service/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	company = auth.Caller{ID: "c1", Role: auth.RoleCompany}
	driver  = auth.Caller{ID: "d1", Role: auth.RoleDriver}
	now     = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	repo     *memoryTrips
	cache    *memoryCache
	prop     *recordingPropagator
	notifier *recordingNotifier
	svc      *TripService
}

func newFixture(trips ...models.Trip) *fixture {
	f := &fixture{
		repo:     newMemoryTrips(trips...),
		cache:    newMemoryCache(),
		prop:     &recordingPropagator{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewTripService(f.repo, f.cache, f.prop, f.notifier)
	f.svc.now = func() time.Time { return now }
	return f
}

func trip(status models.TripStatus, driverID string, start, end time.Time) models.Trip {
	return models.Trip{
		ID:            primitive.NewObjectID(),
		CompanyID:     company.ID,
		DriverID:      driverID,
		VehicleID:     "v1",
		Origin:        "Almaty",
		Destination:   "Astana",
		StartDateTime: start,
		EndDateTime:   end,
		Status:        status,
	}
}

func TestCreateTripRequiresCompany(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateTrip(context.Background(), driver, CreateTripInput{})
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateTripRejectsInvertedWindow(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateTrip(context.Background(), company, CreateTripInput{
		VehicleID:     "v1",
		Origin:        "A",
		Destination:   "B",
		StartDateTime: now.Add(2 * time.Hour),
		EndDateTime:   now.Add(time.Hour),
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTripWithDriverPropagates(t *testing.T) {
	f := newFixture()
	got, err := f.svc.CreateTrip(context.Background(), company, CreateTripInput{
		VehicleID:     "v1",
		DriverID:      "d1",
		Origin:        "A",
		Destination:   "B",
		StartDateTime: now.Add(time.Hour),
		EndDateTime:   now.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Status != models.StatusScheduled || got.CompanyID != company.ID {
		t.Errorf("unexpected trip %+v", got)
	}
	if len(f.prop.calls) != 1 || f.prop.calls[0] != (propagation{"d1", models.AssignmentAssigned}) {
		t.Errorf("unexpected propagation %+v", f.prop.calls)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].UserID != "d1" {
		t.Errorf("expected driver notification, got %+v", f.notifier.sent)
	}
}

func TestAssignDriverOverlapConflict(t *testing.T) {
	busy := trip(models.StatusScheduled, "d1", now.Add(time.Hour), now.Add(4*time.Hour))
	target := trip(models.StatusScheduled, "", now.Add(3*time.Hour), now.Add(5*time.Hour))
	f := newFixture(busy, target)

	_, err := f.svc.AssignDriver(context.Background(), company, target.ID, "d1")
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(f.prop.calls) != 0 {
		t.Errorf("no propagation expected, got %+v", f.prop.calls)
	}
}

func TestAssignDriverIgnoresFinishedTrips(t *testing.T) {
	done := trip(models.StatusCompleted, "d1", now.Add(time.Hour), now.Add(4*time.Hour))
	target := trip(models.StatusScheduled, "", now.Add(2*time.Hour), now.Add(5*time.Hour))
	f := newFixture(done, target)

	got, err := f.svc.AssignDriver(context.Background(), company, target.ID, "d1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.DriverID != "d1" {
		t.Errorf("driver not set: %+v", got)
	}
}

func TestAssignDriverOtherCompanyForbidden(t *testing.T) {
	target := trip(models.StatusScheduled, "", now, now.Add(time.Hour))
	f := newFixture(target)

	other := auth.Caller{ID: "c2", Role: auth.RoleCompany}
	if _, err := f.svc.AssignDriver(context.Background(), other, target.ID, "d1"); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestReassignReleasesPreviousDriver(t *testing.T) {
	target := trip(models.StatusScheduled, "d0", now.Add(time.Hour), now.Add(2*time.Hour))
	f := newFixture(target)

	if _, err := f.svc.AssignDriver(context.Background(), company, target.ID, "d1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	want := []propagation{{"d1", models.AssignmentAssigned}, {"d0", models.AssignmentUnassigned}}
	if len(f.prop.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, f.prop.calls)
	}
	for i := range want {
		if f.prop.calls[i] != want[i] {
			t.Errorf("call %d: expected %v, got %v", i, want[i], f.prop.calls[i])
		}
	}
}

func TestCompleteKeepsDriverAssignedWhileOtherTripsActive(t *testing.T) {
	running := trip(models.StatusInProgress, "d1", now.Add(-2*time.Hour), now)
	later := trip(models.StatusScheduled, "d1", now.Add(24*time.Hour), now.Add(26*time.Hour))
	f := newFixture(running, later)

	got, err := f.svc.CompleteTrip(context.Background(), driver, running.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if len(f.prop.calls) != 0 {
		t.Errorf("driver still has a trip, got %+v", f.prop.calls)
	}
}

func TestCompleteReleasesIdleDriver(t *testing.T) {
	running := trip(models.StatusInProgress, "d1", now.Add(-2*time.Hour), now)
	f := newFixture(running)

	if _, err := f.svc.CompleteTrip(context.Background(), driver, running.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(f.prop.calls) != 1 || f.prop.calls[0] != (propagation{"d1", models.AssignmentUnassigned}) {
		t.Errorf("unexpected propagation %+v", f.prop.calls)
	}
}

func TestStartRequiresAssignedDriver(t *testing.T) {
	scheduled := trip(models.StatusScheduled, "d2", now, now.Add(time.Hour))
	f := newFixture(scheduled)

	if _, err := f.svc.StartTrip(context.Background(), driver, scheduled.ID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCancelFinishedTripFails(t *testing.T) {
	done := trip(models.StatusCompleted, "d1", now.Add(-time.Hour), now)
	f := newFixture(done)

	if _, err := f.svc.CancelTrip(context.Background(), company, done.ID); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelNotifiesAndReleases(t *testing.T) {
	scheduled := trip(models.StatusScheduled, "d1", now.Add(time.Hour), now.Add(2*time.Hour))
	f := newFixture(scheduled)

	got, err := f.svc.CancelTrip(context.Background(), company, scheduled.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Type != "TRIP_CANCELLED" {
		t.Errorf("unexpected notifications %+v", f.notifier.sent)
	}
	if len(f.prop.calls) != 1 || f.prop.calls[0].status != models.AssignmentUnassigned {
		t.Errorf("unexpected propagation %+v", f.prop.calls)
	}
}

func TestAutoCompleteOverdue(t *testing.T) {
	overdue := trip(models.StatusInProgress, "d1", now.Add(-6*time.Hour), now.Add(-3*time.Hour))
	recent := trip(models.StatusInProgress, "d2", now.Add(-2*time.Hour), now.Add(-time.Hour))
	f := newFixture(overdue, recent)

	if n := f.svc.AutoCompleteOverdue(context.Background(), 2*time.Hour); n != 1 {
		t.Fatalf("expected 1 completed, got %d", n)
	}
	if got := f.repo.trips[overdue.ID].Status; got != models.StatusCompleted {
		t.Errorf("overdue trip status %s", got)
	}
	if got := f.repo.trips[recent.ID].Status; got != models.StatusInProgress {
		t.Errorf("recent trip status %s", got)
	}
}

func TestGetCompanyTripsUsesCache(t *testing.T) {
	f := newFixture(trip(models.StatusScheduled, "", now, now.Add(time.Hour)))

	first, err := f.svc.GetCompanyTrips(context.Background(), company.ID)
	if err != nil || len(first) != 1 {
		t.Fatalf("unexpected result %v %v", first, err)
	}
	f.repo.trips = map[primitive.ObjectID]models.Trip{}
	cached, _ := f.svc.GetCompanyTrips(context.Background(), company.ID)
	if len(cached) != 1 {
		t.Errorf("expected cached list, got %d trips", len(cached))
	}
}

func TestListInternalRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ListInternal(context.Background(), models.TripFilter{Statuses: []models.TripStatus{"parked"}})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCacheRefresherReloadsCachedCompanies(t *testing.T) {
	f := newFixture(trip(models.StatusScheduled, "", now, now.Add(time.Hour)))
	f.cache.lists[company.ID] = nil

	if n := NewCacheRefresher(f.svc, f.cache, 0).refresh(context.Background()); n != 1 {
		t.Fatalf("expected 1 refreshed, got %d", n)
	}
	if len(f.cache.lists[company.ID]) != 1 {
		t.Errorf("cache not refreshed: %+v", f.cache.lists)
	}
}
