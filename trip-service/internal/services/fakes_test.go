package services

import (
	"context"
	"sync"
	"time"

	"fleet-app/trip-service/internal/models"
	"fleet-app/trip-service/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryTrips struct {
	trips map[primitive.ObjectID]models.Trip
}

func newMemoryTrips(trips ...models.Trip) *memoryTrips {
	m := &memoryTrips{trips: map[primitive.ObjectID]models.Trip{}}
	for _, t := range trips {
		m.trips[t.ID] = t
	}
	return m
}

func (m *memoryTrips) Create(_ context.Context, trip *models.Trip) error {
	trip.ID = primitive.NewObjectID()
	m.trips[trip.ID] = *trip
	return nil
}

func (m *memoryTrips) Save(_ context.Context, trip *models.Trip, expected models.TripStatus) error {
	cur, ok := m.trips[trip.ID]
	if !ok || cur.Status != expected {
		return models.ErrConflict
	}
	m.trips[trip.ID] = *trip
	return nil
}

func (m *memoryTrips) GetByID(_ context.Context, id primitive.ObjectID) (*models.Trip, error) {
	t, ok := m.trips[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &t, nil
}

func (m *memoryTrips) List(_ context.Context, f models.TripFilter) ([]models.Trip, error) {
	out := []models.Trip{}
	for _, t := range m.trips {
		if f.CompanyID != "" && t.CompanyID != f.CompanyID {
			continue
		}
		if f.DriverID != "" && t.DriverID != f.DriverID {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, t.Status) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memoryTrips) FindDriverOverlap(_ context.Context, driverID string, start, end time.Time, exclude primitive.ObjectID) (*models.Trip, error) {
	for _, t := range m.trips {
		if t.ID != exclude && t.DriverID == driverID && t.IsActive() && t.Overlaps(start, end) {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memoryTrips) CountActiveForDriver(_ context.Context, driverID string, exclude primitive.ObjectID) (int64, error) {
	var n int64
	for _, t := range m.trips {
		if t.ID != exclude && t.DriverID == driverID && t.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *memoryTrips) ListOverdue(_ context.Context, endedBefore time.Time) ([]models.Trip, error) {
	var out []models.Trip
	for _, t := range m.trips {
		if t.Status == models.StatusInProgress && t.EndDateTime.Before(endedBefore) {
			out = append(out, t)
		}
	}
	return out, nil
}

func hasStatus(list []models.TripStatus, s models.TripStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type memoryCache struct {
	lists       map[string][]models.Trip
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{lists: map[string][]models.Trip{}}
}

func (c *memoryCache) GetCompany(_ context.Context, companyID string) ([]models.Trip, bool) {
	l, ok := c.lists[companyID]
	return l, ok
}

func (c *memoryCache) SetCompany(_ context.Context, companyID string, trips []models.Trip) {
	c.lists[companyID] = trips
}

func (c *memoryCache) InvalidateCompany(_ context.Context, companyID string) {
	delete(c.lists, companyID)
	c.invalidated = append(c.invalidated, companyID)
}

func (c *memoryCache) CachedCompanies(_ context.Context) ([]string, error) {
	var ids []string
	for id := range c.lists {
		ids = append(ids, id)
	}
	return ids, nil
}

type propagation struct{ driverID, status string }

type recordingPropagator struct {
	calls []propagation
}

func (p *recordingPropagator) Propagate(driverID, status string) {
	p.calls = append(p.calls, propagation{driverID, status})
}

type recordingNotifier struct {
	sent []utils.NotificationRequest
}

func (n *recordingNotifier) Notify(req utils.NotificationRequest) {
	n.sent = append(n.sent, req)
}

type fakeTarget struct {
	name string
	err  error

	mu    sync.Mutex
	calls []propagation
}

func (f *fakeTarget) Name() string { return f.name }

func (f *fakeTarget) SetAssignmentStatus(_ context.Context, driverID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, propagation{driverID, status})
	return f.err
}
