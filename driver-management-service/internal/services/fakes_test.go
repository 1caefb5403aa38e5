package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/repository"
	"fleet-app/pkg/auth"
	"fleet-app/pkg/events"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeJobRequests mirrors the partial unique index on open requests.
type fakeJobRequests struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.JobRequest
}

func newFakeJobRequests() *fakeJobRequests {
	return &fakeJobRequests{items: map[primitive.ObjectID]models.JobRequest{}}
}

func (f *fakeJobRequests) Create(_ context.Context, r *models.JobRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.IsOpen && r.IsOpen && existing.CompanyID == r.CompanyID && existing.DriverID == r.DriverID {
			return fmt.Errorf("%w: duplicate open request", models.ErrConflict)
		}
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	f.items[r.ID] = cloneRequest(*r)
	return nil
}

func (f *fakeJobRequests) GetByID(_ context.Context, id primitive.ObjectID) (*models.JobRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: job request", models.ErrNotFound)
	}
	c := cloneRequest(r)
	return &c, nil
}

func (f *fakeJobRequests) Save(_ context.Context, r *models.JobRequest, expected models.JobRequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[r.ID]
	if !ok || stored.Status != expected {
		return fmt.Errorf("%w: modified concurrently", models.ErrConflict)
	}
	f.items[r.ID] = cloneRequest(*r)
	return nil
}

func (f *fakeJobRequests) ExistsOpen(_ context.Context, companyID, driverID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.IsOpen && r.CompanyID == companyID && r.DriverID == driverID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJobRequests) List(_ context.Context, filter repository.JobRequestFilter) ([]models.JobRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JobRequest
	for _, r := range f.items {
		if filter.CompanyID != "" && r.CompanyID != filter.CompanyID {
			continue
		}
		if filter.DriverID != "" && r.DriverID != filter.DriverID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.OpenOnly && !r.IsOpen {
			continue
		}
		out = append(out, cloneRequest(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeJobRequests) ListExpired(_ context.Context, now time.Time, _ int64) ([]models.JobRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JobRequest
	for _, r := range f.items {
		if r.IsOpen && r.ExpiresAt.Before(now) {
			out = append(out, cloneRequest(r))
		}
	}
	return out, nil
}

func cloneRequest(r models.JobRequest) models.JobRequest {
	r.StatusHistory = append([]models.StatusChange(nil), r.StatusHistory...)
	return r
}

// fakeEmployments mirrors the partial unique index on ACTIVE employments.
type fakeEmployments struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Employment
}

func newFakeEmployments() *fakeEmployments {
	return &fakeEmployments{items: map[primitive.ObjectID]models.Employment{}}
}

func (f *fakeEmployments) Create(_ context.Context, e *models.Employment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.DriverID == e.DriverID && existing.IsActive() && e.IsActive() {
			return fmt.Errorf("%w: active employment exists", models.ErrConflict)
		}
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	f.items[e.ID] = *e
	return nil
}

func (f *fakeEmployments) GetByID(_ context.Context, id primitive.ObjectID) (*models.Employment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: employment", models.ErrNotFound)
	}
	return &e, nil
}

func (f *fakeEmployments) Save(_ context.Context, e *models.Employment, expected models.EmploymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[e.ID]
	if !ok || stored.Status != expected {
		return fmt.Errorf("%w: modified concurrently", models.ErrConflict)
	}
	f.items[e.ID] = *e
	return nil
}

func (f *fakeEmployments) FindActiveByDriver(_ context.Context, driverID string) (*models.Employment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.items {
		if e.DriverID == driverID && e.IsActive() {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: active employment", models.ErrNotFound)
}

func (f *fakeEmployments) SetAssignmentStatus(_ context.Context, driverID string, status models.AssignmentStatus, at time.Time) (*models.Employment, models.AssignmentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.items {
		if e.DriverID == driverID && e.IsActive() {
			previous := e.AssignmentStatus
			e.AssignmentStatus = status
			e.UpdatedAt = at
			f.items[id] = e
			return &e, previous, nil
		}
	}
	return nil, "", fmt.Errorf("%w: active employment", models.ErrNotFound)
}

func (f *fakeEmployments) List(_ context.Context, filter repository.EmploymentFilter) ([]models.Employment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Employment
	for _, e := range f.items {
		if filter.CompanyID != "" && e.CompanyID != filter.CompanyID {
			continue
		}
		if filter.DriverID != "" && e.DriverID != filter.DriverID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
	return out, nil
}

func (f *fakeEmployments) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeOutbox struct {
	mu      sync.Mutex
	records []models.IdentitySyncRecord
}

func (f *fakeOutbox) Insert(_ context.Context, rec *models.IdentitySyncRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeOutbox) ListPending(_ context.Context, limit int64) ([]models.IdentitySyncRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.IdentitySyncRecord
	for _, r := range f.records {
		if r.Status == models.SyncPending {
			out = append(out, r)
		}
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOutbox) update(id primitive.ObjectID, fn func(*models.IdentitySyncRecord)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID == id {
			fn(&f.records[i])
		}
	}
}

func (f *fakeOutbox) MarkDone(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.update(id, func(r *models.IdentitySyncRecord) {
		r.Status = models.SyncDone
		r.CompletedAt = &at
		r.Attempts++
	})
	return nil
}

func (f *fakeOutbox) MarkRetry(_ context.Context, id primitive.ObjectID, attempts int, next time.Time, lastErr string) error {
	f.update(id, func(r *models.IdentitySyncRecord) {
		r.Attempts = attempts
		r.NextAttemptAt = next
		r.LastError = lastErr
	})
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id primitive.ObjectID, at time.Time, lastErr string) error {
	f.update(id, func(r *models.IdentitySyncRecord) {
		r.Status = models.SyncFailed
		r.CompletedAt = &at
		r.LastError = lastErr
	})
	return nil
}

func (f *fakeOutbox) CountPending(ctx context.Context) (int64, error) {
	pending, _ := f.ListPending(ctx, 1<<30)
	return int64(len(pending)), nil
}

func (f *fakeOutbox) all() []models.IdentitySyncRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.IdentitySyncRecord(nil), f.records...)
}

type fakeRatings struct {
	mu    sync.Mutex
	items []models.DriverRating
}

func (f *fakeRatings) Create(_ context.Context, r *models.DriverRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if r.EmploymentID != "" && existing.DriverID == r.DriverID &&
			existing.RatedBy.CompanyID == r.RatedBy.CompanyID && existing.EmploymentID == r.EmploymentID {
			return fmt.Errorf("%w: duplicate rating", models.ErrConflict)
		}
	}
	f.items = append(f.items, *r)
	return nil
}

func (f *fakeRatings) GetByID(_ context.Context, id primitive.ObjectID) (*models.DriverRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ID == id {
			r.EditHistory = append([]models.RatingEdit(nil), r.EditHistory...)
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: rating", models.ErrNotFound)
}

func (f *fakeRatings) Save(_ context.Context, r *models.DriverRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == r.ID {
			f.items[i] = *r
			return nil
		}
	}
	return fmt.Errorf("%w: rating", models.ErrNotFound)
}

func (f *fakeRatings) Exists(_ context.Context, driverID, companyID, employmentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.DriverID == driverID && r.RatedBy.CompanyID == companyID && r.EmploymentID == employmentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRatings) ListByDriver(_ context.Context, driverID string, approvedOnly bool) ([]models.DriverRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DriverRating
	for _, r := range f.items {
		if r.DriverID == driverID && (!approvedOnly || r.IsApproved) {
			out = append(out, r)
		}
	}
	return out, nil
}

type identityCall struct {
	UserID string
	Update models.IdentityUpdate
	Key    string
}

type fakeIdentity struct {
	mu      sync.Mutex
	users   map[string]*models.DriverProfile
	calls   []identityCall
	failFor map[string]int
	getErr  error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{users: map[string]*models.DriverProfile{}, failFor: map[string]int{}}
}

func (f *fakeIdentity) add(p models.DriverProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[p.ID] = &p
}

func (f *fakeIdentity) GetUser(_ context.Context, id string) (*models.DriverProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
	}
	c := *p
	return &c, nil
}

func (f *fakeIdentity) InternalUpdate(_ context.Context, userID string, u models.IdentityUpdate, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] > 0 {
		f.failFor[userID]--
		return errors.New("identity store unavailable")
	}
	if _, ok := f.users[userID]; !ok {
		return fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
	}
	f.calls = append(f.calls, identityCall{UserID: userID, Update: u, Key: key})
	return nil
}

func (f *fakeIdentity) updates() []identityCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]identityCall(nil), f.calls...)
}

type fakeTrips struct {
	trips []models.Trip
	err   error
}

func (f *fakeTrips) ListTrips(_ context.Context, q models.TripQuery) ([]models.Trip, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Trip
	for _, t := range f.trips {
		if q.CompanyID != "" && t.CompanyID != q.CompanyID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeVehicles struct {
	vehicles map[string]models.Vehicle
	err      error
}

func (f *fakeVehicles) GetVehicle(_ context.Context, id string) (*models.Vehicle, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("%w: vehicle", models.ErrNotFound)
	}
	return &v, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.NotificationRequest
}

func (n *recordingNotifier) Notify(req models.NotificationRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req)
}

func (n *recordingNotifier) to(userID string) []models.NotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.NotificationRequest
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (e *recordingEmitter) Emit(_ context.Context, ev events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type countingTrigger struct{ kicks int }

func (c *countingTrigger) Kick() { c.kicks++ }

type memoryCache struct {
	items map[string]models.RatingAggregate
}

func (m *memoryCache) Get(_ context.Context, driverID string) (*models.RatingAggregate, bool) {
	agg, ok := m.items[driverID]
	return &agg, ok
}

func (m *memoryCache) Set(_ context.Context, agg models.RatingAggregate) { m.items[agg.DriverID] = agg }

func (m *memoryCache) Invalidate(_ context.Context, driverID string) { delete(m.items, driverID) }

var (
	companyCaller = auth.Caller{ID: "c1", Role: auth.RoleCompany}
	otherCompany  = auth.Caller{ID: "c2", Role: auth.RoleCompany}
	driverCaller  = auth.Caller{ID: "d1", Role: auth.RoleDriver}
	otherDriver   = auth.Caller{ID: "d2", Role: auth.RoleDriver}
)

type testEnv struct {
	clock       *fixedClock
	requests    *fakeJobRequests
	employments *fakeEmployments
	outbox      *fakeOutbox
	ratings     *fakeRatings
	identity    *fakeIdentity
	trips       *fakeTrips
	vehicles    *fakeVehicles
	notifier    *recordingNotifier
	emitter     *recordingEmitter
	trigger     *countingTrigger
	cache       *memoryCache

	jobs   *JobRequestService
	emps   *EmploymentService
	rating *RatingService
	worker *IdentitySyncWorker
}

func newTestEnv() *testEnv {
	env := &testEnv{
		clock:       &fixedClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		requests:    newFakeJobRequests(),
		employments: newFakeEmployments(),
		outbox:      &fakeOutbox{},
		ratings:     &fakeRatings{},
		identity:    newFakeIdentity(),
		trips:       &fakeTrips{},
		vehicles:    &fakeVehicles{vehicles: map[string]models.Vehicle{}},
		notifier:    &recordingNotifier{},
		emitter:     &recordingEmitter{},
		trigger:     &countingTrigger{},
		cache:       &memoryCache{items: map[string]models.RatingAggregate{}},
	}
	env.identity.add(models.DriverProfile{ID: "c1", Role: "fleetmanager", CompanyName: "Acme Logistics"})
	env.identity.add(models.DriverProfile{ID: "c2", Role: "fleetmanager", CompanyName: "Globex Freight"})
	env.identity.add(models.DriverProfile{ID: "d1", Role: "driver", Email: "d1@example.com", FirstName: "Dana", CompanyName: "Unemployed"})
	env.identity.add(models.DriverProfile{ID: "d2", Role: "driver", CompanyName: ""})

	env.jobs = NewJobRequestService(JobRequestDeps{
		Requests:    env.requests,
		Employments: env.employments,
		Outbox:      env.outbox,
		Identity:    env.identity,
		Notifier:    env.notifier,
		Events:      env.emitter,
		Sync:        env.trigger,
		Clock:       env.clock,
	})
	env.emps = NewEmploymentService(EmploymentDeps{
		Employments: env.employments,
		Outbox:      env.outbox,
		Identity:    env.identity,
		Trips:       env.trips,
		Vehicles:    env.vehicles,
		Notifier:    env.notifier,
		Events:      env.emitter,
		Sync:        env.trigger,
		Clock:       env.clock,
	})
	env.rating = NewRatingService(RatingDeps{
		Ratings:     env.ratings,
		Employments: env.employments,
		Cache:       env.cache,
		Notifier:    env.notifier,
		Events:      env.emitter,
		Clock:       env.clock,
	})
	env.worker = NewIdentitySyncWorker(env.outbox, env.identity, env.clock, 15*time.Second, time.Hour)
	return env
}

func offer(driverID string) CreateJobRequestInput {
	return CreateJobRequestInput{
		DriverID: driverID,
		JobDetails: models.JobDetails{
			ServiceType:      "Long haul",
			VehicleType:      "Truck",
			ContractDuration: 6,
			ContractUnit:     "Month(s)",
		},
		OfferedSalary: models.Salary{Amount: 20000, Currency: "INR", Frequency: models.PerMonth},
	}
}

// hire runs the create and accept flow and returns the employment.
func (env *testEnv) hire(company auth.Caller, driver auth.Caller) (*models.JobRequest, *models.Employment) {
	req, err := env.jobs.Create(context.Background(), company, offer(driver.ID))
	if err != nil {
		panic(err)
	}
	res, err := env.jobs.Respond(context.Background(), driver, req.ID, RespondInput{Action: ActionAccept, DLConsentGiven: true})
	if err != nil {
		panic(err)
	}
	return res.JobRequest, res.Employment
}
