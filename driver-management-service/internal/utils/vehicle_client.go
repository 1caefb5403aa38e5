package utils

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"fleet-app/driver-management-service/internal/models"
)

type VehicleClient struct {
	serviceClient
}

func NewVehicleClient(baseURL string, timeout time.Duration) *VehicleClient {
	return &VehicleClient{newServiceClient("vehicle-service", baseURL, timeout)}
}

func (c *VehicleClient) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := c.do(ctx, http.MethodGet, "/api/vehicles/"+url.PathEscape(id), nil, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
