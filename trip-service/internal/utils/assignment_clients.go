package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DriverServiceClient updates the assignment flag on the driver's employment.
type DriverServiceClient struct {
	serviceClient
}

func NewDriverServiceClient(baseURL string, timeout time.Duration) *DriverServiceClient {
	return &DriverServiceClient{newServiceClient("driver-management-service", baseURL, timeout)}
}

func (c *DriverServiceClient) Name() string { return c.name }

func (c *DriverServiceClient) SetAssignmentStatus(ctx context.Context, driverID, status string) error {
	path := fmt.Sprintf("/drivers/employments/driver/%s/assignment-status", url.PathEscape(driverID))
	return c.send(ctx, http.MethodPatch, path, map[string]string{"assignmentStatus": status})
}

// UserServiceClient mirrors the assignment flag on the user profile.
type UserServiceClient struct {
	serviceClient
}

func NewUserServiceClient(baseURL string, timeout time.Duration) *UserServiceClient {
	return &UserServiceClient{newServiceClient("user-management-service", baseURL, timeout)}
}

func (c *UserServiceClient) Name() string { return c.name }

func (c *UserServiceClient) SetAssignmentStatus(ctx context.Context, driverID, status string) error {
	path := fmt.Sprintf("/admin/users/%s/internal-update", url.PathEscape(driverID))
	return c.send(ctx, http.MethodPut, path, map[string]string{"assignmentStatus": status})
}
