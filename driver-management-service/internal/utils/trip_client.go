package utils

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fleet-app/driver-management-service/internal/models"
)

type TripClient struct {
	serviceClient
}

func NewTripClient(baseURL string, timeout time.Duration) *TripClient {
	return &TripClient{newServiceClient("trip-service", baseURL, timeout)}
}

func (c *TripClient) ListTrips(ctx context.Context, q models.TripQuery) ([]models.Trip, error) {
	params := url.Values{}
	if q.CompanyID != "" {
		params.Set("companyId", q.CompanyID)
	}
	if q.DriverID != "" {
		params.Set("driverId", q.DriverID)
	}
	if q.VehicleID != "" {
		params.Set("vehicleId", q.VehicleID)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		params.Set("status", strings.Join(statuses, ","))
	}

	path := "/internal/trips"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	trips := []models.Trip{}
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}
